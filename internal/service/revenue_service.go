package service

import (
	"context"
	"math"
	"strings"

	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"go.uber.org/zap"
)

// RevenueService учитывает выручку по ссылкам владельца
type RevenueService interface {
	TrackRevenue(ctx context.Context, ownerID int64, input *models.TrackRevenueInput) (*models.RevenueEvent, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewRevenueService(revenueRepo repository.RevenueRepository, m *metrics.Metrics, logger *zap.Logger) RevenueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &revenueService{
		revenueRepo: revenueRepo,
		metrics:     m,
		logger:      logger,
	}
}

// TrackRevenue прибавляет сумму к выручке ссылки и сохраняет событие.
// Повторные вызовы с тем же transaction_id суммируются.
func (s *revenueService) TrackRevenue(ctx context.Context, ownerID int64, input *models.TrackRevenueInput) (*models.RevenueEvent, error) {
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) {
		return nil, ErrInvalidAmount
	}

	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	event := &models.RevenueEvent{
		LinkID:        input.LinkID,
		Amount:        input.Amount,
		Currency:      currency,
		TransactionID: input.TransactionID,
	}

	if err := s.revenueRepo.RecordRevenue(ctx, ownerID, event); err != nil {
		return nil, err
	}

	s.metrics.RevenueTracked()
	s.logger.Debug("Revenue tracked",
		zap.Int64("link_id", event.LinkID),
		zap.Float64("amount", event.Amount),
		zap.String("currency", event.Currency),
	)

	return event, nil
}

func normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if currency == "" {
		return models.DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return currency, nil
}
