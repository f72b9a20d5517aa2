package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SergeiKhy/linkflow/internal/config"
	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testEnv окружение интеграционных тестов с PostgreSQL и Redis контейнерами
type testEnv struct {
	db    *repository.PostgresDB
	redis *repository.RedisDB
}

func setupTestEnv(t *testing.T) *testEnv {
	ctx := context.Background()

	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("linkflow"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbContainer.Terminate(context.Background()) })

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(context.Background()) })

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	dbCfg := config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "linkflow",
		SSLMode:  "disable",
	}

	require.NoError(t, repository.Migrate(dbCfg))
	// повторный запуск миграций не ошибка
	require.NoError(t, repository.Migrate(dbCfg))

	db, err := repository.NewPostgresDB(dbCfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	redisDB, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisDB.Close() })

	return &testEnv{db: db, redis: redisDB}
}

func createUser(t *testing.T, repo repository.UserRepository, name string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "hash",
		Plan:         models.DefaultPlan,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newLink(owner int64, code string) *models.Link {
	return &models.Link{
		UserID:         owner,
		Title:          "link " + code,
		DestinationURL: "https://example.com/" + code,
		Category:       models.DefaultCategory,
		ShortCode:      code,
		ShortURL:       "http://localhost:8080/r/" + code,
		Status:         models.LinkStatusActive,
	}
}

func TestIntegration_Repositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	ctx := context.Background()

	users := repository.NewUserRepository(env.db)
	links := repository.NewLinkRepository(env.db)
	clicks := repository.NewClickRepository(env.db)
	revenue := repository.NewRevenueRepository(env.db)
	stats := repository.NewStatsRepository(env.db)
	cache := repository.NewCacheRepository(env.redis)

	ann := createUser(t, users, "ann")
	bob := createUser(t, users, "bob")

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, env.db.Ping(ctx))
	})

	t.Run("дубликат пользователя", func(t *testing.T) {
		dup := &models.User{Email: "ann@example.com", Username: "ann2", PasswordHash: "x", Plan: "free", IsActive: true}
		assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrUserExists)

		_, err := users.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	t.Run("создание ссылки и коллизия кода", func(t *testing.T) {
		link := newLink(ann.ID, "abcd1234")
		require.NoError(t, links.Create(ctx, link))
		assert.NotZero(t, link.ID)
		assert.Zero(t, link.Clicks)
		assert.Nil(t, link.UpdatedAt)

		assert.ErrorIs(t, links.Create(ctx, newLink(bob.ID, "abcd1234")), repository.ErrCodeExists)
		assert.ErrorIs(t, links.Create(ctx, newLink(9999, "zzzz0000")), repository.ErrUserNotFound)
	})

	t.Run("владелец как фильтр", func(t *testing.T) {
		link, err := links.GetByShortCode(ctx, "abcd1234")
		require.NoError(t, err)

		_, err = links.GetByID(ctx, link.ID, bob.ID)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		_, err = links.Delete(ctx, link.ID, bob.ID)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		list, err := links.ListByOwner(ctx, bob.ID, 0, 100)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("клики атомарны", func(t *testing.T) {
		link, err := links.GetByShortCode(ctx, "abcd1234")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			event := &models.ClickEvent{LinkID: link.ID, IPAddress: "10.0.0.1", UserAgent: "test", Referrer: ""}
			require.NoError(t, clicks.RecordClick(ctx, event))
			assert.NotZero(t, event.ID)
			assert.False(t, event.Timestamp.IsZero())
		}

		got, err := links.GetByID(ctx, link.ID, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Clicks)
		assert.NotNil(t, got.UpdatedAt)

		count, err := clicks.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		daily, err := clicks.GetDailyStats(ctx, link.ID, 7)
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, int64(3), daily[0].Clicks)

		err = clicks.RecordClick(ctx, &models.ClickEvent{LinkID: 9999})
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("выручка", func(t *testing.T) {
		link, err := links.GetByShortCode(ctx, "abcd1234")
		require.NoError(t, err)

		txID := "order-1"
		for i := 0; i < 2; i++ {
			event := &models.RevenueEvent{LinkID: link.ID, Amount: 9.99, Currency: "USD", TransactionID: &txID}
			require.NoError(t, revenue.RecordRevenue(ctx, ann.ID, event))
		}

		err = revenue.RecordRevenue(ctx, bob.ID, &models.RevenueEvent{LinkID: link.ID, Amount: 1, Currency: "USD"})
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		got, err := links.GetByID(ctx, link.ID, ann.ID)
		require.NoError(t, err)
		assert.InDelta(t, 19.98, got.Revenue, 1e-9)
	})

	t.Run("сводка", func(t *testing.T) {
		paused := newLink(ann.ID, "paused01")
		paused.Status = models.LinkStatusPaused
		require.NoError(t, links.Create(ctx, paused))

		totals, err := stats.DashboardTotals(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), totals.TotalLinks)
		assert.Equal(t, int64(3), totals.TotalClicks)
		assert.InDelta(t, 19.98, totals.TotalRevenue, 1e-9)
		assert.Equal(t, int64(1), totals.ActiveCampaigns)

		empty, err := stats.DashboardTotals(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, &models.DashboardStats{}, empty)
	})

	t.Run("обновление и список", func(t *testing.T) {
		list, err := links.ListByOwner(ctx, ann.ID, 0, 100)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Less(t, list[0].ID, list[1].ID)

		status := models.LinkStatusArchived
		updated, err := links.Update(ctx, list[1].ID, ann.ID, &models.UpdateLinkInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.LinkStatusArchived, updated.Status)
		assert.Equal(t, list[1].Title, updated.Title)
		assert.Equal(t, list[1].ShortCode, updated.ShortCode)
	})

	t.Run("удаление каскадом", func(t *testing.T) {
		link, err := links.GetByShortCode(ctx, "abcd1234")
		require.NoError(t, err)

		code, err := links.Delete(ctx, link.ID, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "abcd1234", code)

		_, err = links.GetByShortCode(ctx, code)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		count, err := clicks.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("кэш", func(t *testing.T) {
		target := &models.LinkTarget{LinkID: 1, UserID: ann.ID, DestinationURL: "https://example.com"}
		require.NoError(t, cache.Set(ctx, "cache001", target, time.Minute))

		got, err := cache.Get(ctx, "cache001")
		require.NoError(t, err)
		assert.Equal(t, target, got)

		require.NoError(t, cache.Delete(ctx, "cache001"))
		_, err = cache.Get(ctx, "cache001")
		assert.True(t, errors.Is(err, repository.ErrCacheMiss))
	})

	t.Run("параллельные клики и выручка", func(t *testing.T) {
		cara := createUser(t, users, "cara")
		link := newLink(cara.ID, "conc0001")
		require.NoError(t, links.Create(ctx, link))

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				errs <- clicks.RecordClick(ctx, &models.ClickEvent{LinkID: link.ID, IPAddress: "10.0.0.2", UserAgent: "load"})
			}()
			go func() {
				defer wg.Done()
				errs <- revenue.RecordRevenue(ctx, cara.ID, &models.RevenueEvent{LinkID: link.ID, Amount: 0.5, Currency: "USD"})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := links.GetByID(ctx, link.ID, cara.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Clicks)
		assert.InDelta(t, 0.5*n, got.Revenue, 1e-9)

		count, err := clicks.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), count)
	})
}
