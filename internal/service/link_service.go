package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"go.uber.org/zap"
)

// Константы сервиса
const (
	defaultCacheTTL    = 24 * time.Hour
	maxCodeAttempts    = 5
	invalidateAttempts = 3
	invalidateBackoff  = 20 * time.Millisecond
	DefaultListLimit   = 100
	MaxListLimit       = 1000
)

var urlPattern = regexp.MustCompile(`^https?://[^\s]+$`)

// LinkService интерфейс сервиса ссылок. Все операции, кроме GetLinkByCode,
// ограничены владельцем ссылки.
type LinkService interface {
	CreateLink(ctx context.Context, ownerID int64, input *models.CreateLinkInput) (*models.Link, error)
	GetLink(ctx context.Context, id, ownerID int64) (*models.Link, error)
	GetLinkByCode(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Link, error)
	UpdateLink(ctx context.Context, id, ownerID int64, input *models.UpdateLinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, id, ownerID int64) error
}

// LinkOptions параметры сервиса ссылок
type LinkOptions struct {
	BaseURL  string
	CacheTTL time.Duration
	// Generate по умолчанию RandomCode
	Generate CodeGenerator
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	baseURL   string
	cacheTTL  time.Duration
	generate  CodeGenerator
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	opts LinkOptions,
	logger *zap.Logger,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Generate == nil {
		opts.Generate = RandomCode
	}

	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		cacheTTL:  opts.CacheTTL,
		generate:  opts.Generate,
		logger:    logger,
	}
}

// CreateLink создаёт ссылку владельца с новым коротким кодом.
// При коллизии кода генерируется новый, не более maxCodeAttempts раз.
func (s *linkService) CreateLink(ctx context.Context, ownerID int64, input *models.CreateLinkInput) (*models.Link, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	if err := validateURL(input.DestinationURL); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		link := &models.Link{
			UserID:         ownerID,
			Title:          title,
			DestinationURL: input.DestinationURL,
			Category:       category,
			ShortCode:      code,
			ShortURL:       s.shortURL(code),
			Status:         models.LinkStatusActive,
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			if err := s.cacheRepo.Set(ctx, code, link.Target(), s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache link", zap.String("short_code", code), zap.Error(err))
			}
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}

		s.logger.Debug("Short code collision, retrying",
			zap.String("short_code", code),
			zap.Int("attempt", attempt),
		)
	}

	return nil, ErrCodeGeneration
}

func (s *linkService) GetLink(ctx context.Context, id, ownerID int64) (*models.Link, error) {
	return s.linkRepo.GetByID(ctx, id, ownerID)
}

func (s *linkService) GetLinkByCode(ctx context.Context, code string) (*models.Link, error) {
	return s.linkRepo.GetByShortCode(ctx, code)
}

// ListLinks возвращает ссылки владельца в порядке создания
func (s *linkService) ListLinks(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Link, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.linkRepo.ListByOwner(ctx, ownerID, offset, limit)
}

// UpdateLink частично обновляет ссылку; короткий код не меняется
func (s *linkService) UpdateLink(ctx context.Context, id, ownerID int64, input *models.UpdateLinkInput) (*models.Link, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidTitle
		}
		input.Title = &title
	}
	if input.DestinationURL != nil {
		if err := validateURL(*input.DestinationURL); err != nil {
			return nil, err
		}
	}
	if input.Category != nil && strings.TrimSpace(*input.Category) == "" {
		category := models.DefaultCategory
		input.Category = &category
	}
	if input.Status != nil && !validStatus(*input.Status) {
		return nil, ErrInvalidStatus
	}

	link, err := s.linkRepo.Update(ctx, id, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, link.ShortCode)
	return link, nil
}

// DeleteLink удаляет ссылку владельца вместе с её событиями
func (s *linkService) DeleteLink(ctx context.Context, id, ownerID int64) error {
	code, err := s.linkRepo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)
	return nil
}

// invalidate удаляет код из кэша с повторами; устаревшую запись после неудачи
// дочищает редирект, когда запись клика не находит ссылку
func (s *linkService) invalidate(ctx context.Context, code string) {
	var err error
	for i := 0; i < invalidateAttempts; i++ {
		if err = s.cacheRepo.Delete(ctx, code); err == nil {
			return
		}
		if i < invalidateAttempts-1 {
			time.Sleep(time.Duration(i+1) * invalidateBackoff)
		}
	}
	s.logger.Warn("Failed to invalidate cached link",
		zap.String("short_code", code),
		zap.Int("attempts", invalidateAttempts),
		zap.Error(err),
	)
}

func (s *linkService) shortURL(code string) string {
	return s.baseURL + "/r/" + code
}

// validateURL принимает только абсолютные http(s) адреса с хостом
func validateURL(raw string) error {
	if !urlPattern.MatchString(raw) {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.LinkStatusActive, models.LinkStatusPaused, models.LinkStatusArchived:
		return true
	}
	return false
}
