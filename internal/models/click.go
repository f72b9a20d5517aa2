package models

import (
	"time"
)

type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
	Timestamp time.Time `json:"timestamp"`
}

// Visit - входящий редирект до того, как он превратится в ClickEvent
type Visit struct {
	ShortCode string
	IPAddress string
	UserAgent string
	Referrer  string
}

type DailyClickStats struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}
