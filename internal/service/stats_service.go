package service

import (
	"context"
	"math"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

// StatsService считает агрегаты только по счётчикам ссылок
type StatsService interface {
	Dashboard(ctx context.Context, ownerID int64) (*models.DashboardStats, error)
	LinkStats(ctx context.Context, linkID, ownerID int64) (*models.LinkStats, error)
	DailyClicks(ctx context.Context, linkID, ownerID int64, days int) ([]models.DailyClickStats, error)
}

type statsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	statsRepo repository.StatsRepository
}

func NewStatsService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	statsRepo repository.StatsRepository,
) StatsService {
	return &statsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
	}
}

func (s *statsService) Dashboard(ctx context.Context, ownerID int64) (*models.DashboardStats, error) {
	stats, err := s.statsRepo.DashboardTotals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats.ConversionRate = ConversionRate(stats.TotalRevenue, stats.TotalClicks)
	return stats, nil
}

func (s *statsService) LinkStats(ctx context.Context, linkID, ownerID int64) (*models.LinkStats, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID, ownerID)
	if err != nil {
		return nil, err
	}

	return &models.LinkStats{
		LinkID:         link.ID,
		Title:          link.Title,
		Clicks:         link.Clicks,
		Revenue:        link.Revenue,
		ConversionRate: ConversionRate(link.Revenue, link.Clicks),
	}, nil
}

// DailyClicks отдаёт клики по дням за последние days дней; days вне 1..90 заменяется на 7
func (s *statsService) DailyClicks(ctx context.Context, linkID, ownerID int64, days int) ([]models.DailyClickStats, error) {
	if days < 1 || days > MaxStatsDays {
		days = DefaultStatsDays
	}

	// проверка владельца
	if _, err := s.linkRepo.GetByID(ctx, linkID, ownerID); err != nil {
		return nil, err
	}

	return s.clickRepo.GetDailyStats(ctx, linkID, days)
}

// ConversionRate - выручка на клик в процентах, округлённая до сотых; 0 без кликов
func ConversionRate(revenue float64, clicks int64) float64 {
	if clicks <= 0 {
		return 0
	}
	rate := revenue / float64(clicks) * 100
	return math.Round(rate*100) / 100
}
