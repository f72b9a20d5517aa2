package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/jackc/pgx/v5"
)

type RevenueRepository interface {
	// RecordRevenue прибавляет сумму к выручке ссылки владельца и пишет событие.
	// Повторный transaction_id не отсекается.
	RecordRevenue(ctx context.Context, ownerID int64, event *models.RevenueEvent) error
}

type revenueRepository struct {
	db *PostgresDB
}

func NewRevenueRepository(db *PostgresDB) RevenueRepository {
	return &revenueRepository{db: db}
}

func (r *revenueRepository) RecordRevenue(ctx context.Context, ownerID int64, event *models.RevenueEvent) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE links SET revenue = revenue + $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			event.LinkID,
			ownerID,
			event.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to add revenue: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrLinkNotFound
		}

		query := `
			INSERT INTO revenue_events (link_id, amount, currency, transaction_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, timestamp
		`
		err = tx.QueryRow(ctx, query,
			event.LinkID,
			event.Amount,
			event.Currency,
			event.TransactionID,
		).Scan(&event.ID, &event.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to record revenue event: %w", err)
		}

		return nil
	})
}
