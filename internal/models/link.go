package models

import (
	"time"
)

// Статусы ссылки
const (
	LinkStatusActive   = "active"
	LinkStatusPaused   = "paused"
	LinkStatusArchived = "archived"
)

const DefaultCategory = "affiliate"

type Link struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Title          string     `json:"title"`
	DestinationURL string     `json:"destination_url"`
	Category       string     `json:"category"`
	ShortCode      string     `json:"short_code"`
	ShortURL       string     `json:"short_url"`
	Status         string     `json:"status"`
	Clicks         int64      `json:"clicks"`
	Revenue        float64    `json:"revenue"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// Target возвращает то, что нужно резолверу для редиректа
func (l *Link) Target() *LinkTarget {
	return &LinkTarget{
		LinkID:         l.ID,
		UserID:         l.UserID,
		DestinationURL: l.DestinationURL,
	}
}

// LinkTarget хранится в кэше резолвера по короткому коду
type LinkTarget struct {
	LinkID         int64  `json:"link_id"`
	UserID         int64  `json:"user_id"`
	DestinationURL string `json:"destination_url"`
}

type CreateLinkInput struct {
	Title          string `json:"title"`
	DestinationURL string `json:"destination_url"`
	Category       string `json:"category"`
}

// UpdateLinkInput описывает частичное обновление; nil поля не меняются
type UpdateLinkInput struct {
	Title          *string `json:"title,omitempty"`
	DestinationURL *string `json:"destination_url,omitempty"`
	Category       *string `json:"category,omitempty"`
	Status         *string `json:"status,omitempty"`
}

type LinkStats struct {
	LinkID         int64   `json:"link_id"`
	Title          string  `json:"title"`
	Clicks         int64   `json:"clicks"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversion_rate"`
}
