package models

import (
	"time"
)

const DefaultCurrency = "USD"

type RevenueEvent struct {
	ID            int64     `json:"id"`
	LinkID        int64     `json:"link_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type TrackRevenueInput struct {
	LinkID        int64   `json:"link_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	TransactionID *string `json:"transaction_id,omitempty"`
}
