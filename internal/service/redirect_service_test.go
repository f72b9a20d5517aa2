package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/SergeiKhy/linkflow/internal/service/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type redirectEnv struct {
	links     service.LinkService
	redirect  service.RedirectService
	linkRepo  *mocks.MockLinkRepository
	cacheRepo *mocks.MockCacheRepository
	clickRepo *mocks.MockClickRepository
	registry  *prometheus.Registry
}

func setupRedirect(t *testing.T) *redirectEnv {
	logger := zaptest.NewLogger(t)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	clickRepo := mocks.NewMockClickRepository(linkRepo)
	clicks := service.NewClickProcessor(clickRepo, service.ClickProcessorConfig{}, m, logger)

	return &redirectEnv{
		links:     service.NewLinkService(linkRepo, cacheRepo, service.LinkOptions{BaseURL: testBaseURL}, logger),
		redirect:  service.NewRedirectService(linkRepo, cacheRepo, clicks, time.Hour, m, logger),
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		clickRepo: clickRepo,
		registry:  registry,
	}
}

func TestRedirectService_Resolve_CountsClicks(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)

	visit := &models.Visit{
		ShortCode: link.ShortCode,
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
		Referrer:  "https://news.example.org",
	}

	dest, err := env.redirect.Resolve(ctx, visit)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", dest)

	got, err := env.links.GetLink(ctx, link.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Clicks)

	_, err = env.redirect.Resolve(ctx, visit)
	require.NoError(t, err)

	got, err = env.links.GetLink(ctx, link.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Clicks)

	events := env.clickRepo.Events(link.ID)
	require.Len(t, events, 2)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)
	assert.Equal(t, "curl/8.0", events[0].UserAgent)
	assert.Equal(t, "https://news.example.org", events[0].Referrer)
	assert.False(t, events[0].Timestamp.IsZero())

	assert.Equal(t, 2.0, counterValue(t, env.registry, "linkflow_clicks_recorded_total"))
}

func TestRedirectService_Resolve_NotFound(t *testing.T) {
	env := setupRedirect(t)

	_, err := env.redirect.Resolve(context.Background(), &models.Visit{ShortCode: "nope1234"})

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestRedirectService_Resolve_UsesCache(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	env.cacheRepo.Reset()

	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)
	assert.Zero(t, env.cacheRepo.Hits)
	assert.True(t, env.cacheRepo.Has(link.ShortCode))

	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)
	assert.Equal(t, 1, env.cacheRepo.Hits)
}

func TestRedirectService_Resolve_CacheErrorFallsBackToStore(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	env.cacheRepo.GetErr = errors.New("redis: connection refused")

	dest, err := env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", dest)
}

func TestRedirectService_Resolve_ClickFailureStillRedirects(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	env.clickRepo.Err = errors.New("disk full")

	dest, err := env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", dest)
	assert.Equal(t, 1.0, counterValue(t, env.registry, "linkflow_click_record_failures_total"))
}

func TestRedirectService_Resolve_AfterUpdate(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://old.example.com"})
	require.NoError(t, err)
	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)

	dest := "https://new.example.com"
	_, err = env.links.UpdateLink(ctx, link.ID, 1, &models.UpdateLinkInput{DestinationURL: &dest})
	require.NoError(t, err)

	got, err := env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)
	assert.Equal(t, dest, got)
}

func TestRedirectService_Resolve_AfterDelete(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	require.NoError(t, env.links.DeleteLink(ctx, link.ID, 1))

	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestRedirectService_Resolve_StaleCacheAfterFailedInvalidation(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)

	// Redis недоступен во время удаления: все попытки инвалидации падают
	env.cacheRepo.DeleteErr = errors.New("redis: connection refused")
	env.cacheRepo.DeleteCalls = 0
	require.NoError(t, env.links.DeleteLink(ctx, link.ID, 1))
	assert.Equal(t, 3, env.cacheRepo.DeleteCalls)
	require.True(t, env.cacheRepo.Has(link.ShortCode))

	env.cacheRepo.DeleteErr = nil
	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.False(t, env.cacheRepo.Has(link.ShortCode))
	assert.Equal(t, 1.0, counterValue(t, env.registry, "linkflow_clicks_recorded_total"))
}

func TestLinkService_DeleteLink_RetriesInvalidation(t *testing.T) {
	env := setupRedirect(t)
	ctx := context.Background()

	link, err := env.links.CreateLink(ctx, 1, &models.CreateLinkInput{Title: "t", DestinationURL: "https://example.com"})
	require.NoError(t, err)
	_, err = env.redirect.Resolve(ctx, &models.Visit{ShortCode: link.ShortCode})
	require.NoError(t, err)
	env.cacheRepo.DeleteCalls = 0

	require.NoError(t, env.links.DeleteLink(ctx, link.ID, 1))

	assert.Equal(t, 1, env.cacheRepo.DeleteCalls)
	assert.False(t, env.cacheRepo.Has(link.ShortCode))
}

// counterValue читает значение счётчика из реестра
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
