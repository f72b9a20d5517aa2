package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"go.uber.org/zap"
)

// RedirectService резолвит короткий код в адрес назначения и учитывает переход
type RedirectService interface {
	Resolve(ctx context.Context, visit *models.Visit) (string, error)
}

type redirectService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	clicks    ClickProcessor
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewRedirectService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	clicks ClickProcessor,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) RedirectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &redirectService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		clicks:    clicks,
		cacheTTL:  cacheTTL,
		metrics:   m,
		logger:    logger,
	}
}

// Resolve возвращает адрес назначения. Ошибка записи клика не мешает редиректу:
// она логируется и учитывается в метриках. Исключение: запись не нашла ссылку,
// значит кэш устарел, запись вытесняется и возвращается ErrLinkNotFound.
func (s *redirectService) Resolve(ctx context.Context, visit *models.Visit) (string, error) {
	target, err := s.lookup(ctx, visit.ShortCode)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			s.metrics.Redirect(metrics.RedirectNotFound)
		} else {
			s.metrics.Redirect(metrics.RedirectError)
		}
		return "", err
	}

	event := &models.ClickEvent{
		LinkID:    target.LinkID,
		IPAddress: visit.IPAddress,
		UserAgent: visit.UserAgent,
		Referrer:  visit.Referrer,
	}
	if err := s.clicks.RecordClick(ctx, event); err != nil {
		// ссылки уже нет, а в кэше осталась старая запись
		if errors.Is(err, repository.ErrLinkNotFound) {
			s.evict(ctx, visit.ShortCode)
			s.metrics.Redirect(metrics.RedirectNotFound)
			return "", err
		}
		s.logger.Warn("Failed to record click",
			zap.String("short_code", visit.ShortCode),
			zap.Int64("link_id", target.LinkID),
			zap.Error(err),
		)
	}

	s.metrics.Redirect(metrics.RedirectFound)
	return target.DestinationURL, nil
}

func (s *redirectService) evict(ctx context.Context, code string) {
	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Failed to evict stale cached link", zap.String("short_code", code), zap.Error(err))
		return
	}
	s.logger.Info("Evicted stale cached link", zap.String("short_code", code))
}

// lookup сначала смотрит в кэш, затем в БД
func (s *redirectService) lookup(ctx context.Context, code string) (*models.LinkTarget, error) {
	target, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", zap.String("short_code", code), zap.Error(err))
	}

	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	target = link.Target()
	if err := s.cacheRepo.Set(ctx, code, target, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("short_code", code), zap.Error(err))
	}

	return target, nil
}
