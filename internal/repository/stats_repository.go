package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkflow/internal/models"
)

type StatsRepository interface {
	// DashboardTotals суммирует счётчики по ссылкам владельца; ConversionRate не заполняется
	DashboardTotals(ctx context.Context, ownerID int64) (*models.DashboardStats, error)
}

type statsRepository struct {
	db *PostgresDB
}

func NewStatsRepository(db *PostgresDB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) DashboardTotals(ctx context.Context, ownerID int64) (*models.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(clicks), 0)::BIGINT,
			COALESCE(SUM(revenue), 0)::DOUBLE PRECISION,
			COUNT(*) FILTER (WHERE status = 'active')
		FROM links
		WHERE user_id = $1
	`

	stats := &models.DashboardStats{}
	err := r.db.Pool.QueryRow(ctx, query, ownerID).Scan(
		&stats.TotalLinks,
		&stats.TotalClicks,
		&stats.TotalRevenue,
		&stats.ActiveCampaigns,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard totals: %w", err)
	}

	return stats, nil
}
