package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/jackc/pgx/v5"
)

type ClickRepository interface {
	// RecordClick добавляет событие клика и увеличивает счётчик ссылки одной транзакцией
	RecordClick(ctx context.Context, click *models.ClickEvent) error
	CountByLink(ctx context.Context, linkID int64) (int64, error)
	GetDailyStats(ctx context.Context, linkID int64, days int) ([]models.DailyClickStats, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) RecordClick(ctx context.Context, click *models.ClickEvent) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		// Атомарный инкремент: блокирует строку ссылки до конца транзакции
		tag, err := tx.Exec(ctx,
			`UPDATE links SET clicks = clicks + 1, updated_at = NOW() WHERE id = $1`,
			click.LinkID,
		)
		if err != nil {
			return fmt.Errorf("failed to increment clicks: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrLinkNotFound
		}

		query := `
			INSERT INTO click_events (link_id, ip_address, user_agent, referrer)
			VALUES ($1, $2, $3, $4)
			RETURNING id, timestamp
		`
		err = tx.QueryRow(ctx, query,
			click.LinkID,
			click.IPAddress,
			click.UserAgent,
			click.Referrer,
		).Scan(&click.ID, &click.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}

		return nil
	})
}

func (r *clickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM click_events WHERE link_id = $1`, linkID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

func (r *clickRepository) GetDailyStats(ctx context.Context, linkID int64, days int) ([]models.DailyClickStats, error) {
	query := `
		SELECT
			TO_CHAR(DATE(timestamp), 'YYYY-MM-DD') AS date,
			COUNT(*) AS clicks
		FROM click_events
		WHERE link_id = $1
			AND timestamp >= NOW() - make_interval(days => $2::int)
		GROUP BY DATE(timestamp)
		ORDER BY DATE(timestamp) DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	stats := make([]models.DailyClickStats, 0)
	for rows.Next() {
		var dailyStat models.DailyClickStats
		if err := rows.Scan(&dailyStat.Date, &dailyStat.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, dailyStat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	return stats, nil
}
