package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing.
// Click and revenue mocks update its counters the way the SQL transactions do.
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[int64]*models.Link
	codes  map[string]int64
	nextID int64

	// CreateErr is returned by Create when set
	CreateErr error
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[int64]*models.Link),
		codes:  make(map[string]int64),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.codes[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	link.CreatedAt = time.Now()
	m.nextID++

	stored := *link
	m.links[link.ID] = &stored
	m.codes[link.ShortCode] = link.ID
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id, ownerID int64) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists || link.UserID != ownerID {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.codes[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *m.links[id]
	return &copied, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := make([]*models.Link, 0)
	for _, link := range m.links {
		if link.UserID == ownerID {
			copied := *link
			owned = append(owned, &copied)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	if offset >= len(owned) {
		return []*models.Link{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (m *MockLinkRepository) Update(ctx context.Context, id, ownerID int64, input *models.UpdateLinkInput) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists || link.UserID != ownerID {
		return nil, repository.ErrLinkNotFound
	}
	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.DestinationURL != nil {
		link.DestinationURL = *input.DestinationURL
	}
	if input.Category != nil {
		link.Category = *input.Category
	}
	if input.Status != nil {
		link.Status = *input.Status
	}
	now := time.Now()
	link.UpdatedAt = &now

	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, id, ownerID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists || link.UserID != ownerID {
		return "", repository.ErrLinkNotFound
	}
	delete(m.links, id)
	delete(m.codes, link.ShortCode)
	return link.ShortCode, nil
}

func (m *MockLinkRepository) addClick(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists {
		return false
	}
	link.Clicks++
	return true
}

func (m *MockLinkRepository) addRevenue(id, ownerID int64, amount float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists || link.UserID != ownerID {
		return false
	}
	link.Revenue += amount
	return true
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[int64]*models.Link)
	m.codes = make(map[string]int64)
	m.nextID = 1
}

// CollidingLinkRepository reports ErrCodeExists for the first Collisions creates
type CollidingLinkRepository struct {
	*MockLinkRepository
	mu         sync.Mutex
	Collisions int
	Attempts   int
}

func NewCollidingLinkRepository(collisions int) *CollidingLinkRepository {
	return &CollidingLinkRepository{
		MockLinkRepository: NewMockLinkRepository(),
		Collisions:         collisions,
	}
}

func (m *CollidingLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	m.Attempts++
	collide := m.Attempts <= m.Collisions
	m.mu.Unlock()

	if collide {
		return repository.ErrCodeExists
	}
	return m.MockLinkRepository.Create(ctx, link)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.LinkTarget

	// GetErr is returned by Get when set
	GetErr error
	// DeleteErr is returned by Delete when set; the entry is kept
	DeleteErr   error
	Hits        int
	DeleteCalls int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.LinkTarget),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.LinkTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	target, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	m.Hits++
	return target, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, code string, target *models.LinkTarget, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[code] = target
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.cache, code)
	return nil
}

func (m *MockCacheRepository) Has(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.cache[code]
	return exists
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.LinkTarget)
	m.Hits = 0
	m.DeleteCalls = 0
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	links  *MockLinkRepository
	clicks map[int64][]*models.ClickEvent // link_id -> clicks
	nextID int64

	// Err is returned by RecordClick when set
	Err error
}

func NewMockClickRepository(links *MockLinkRepository) *MockClickRepository {
	return &MockClickRepository{
		links:  links,
		clicks: make(map[int64][]*models.ClickEvent),
		nextID: 1,
	}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if !m.links.addClick(click.LinkID) {
		return repository.ErrLinkNotFound
	}

	click.ID = m.nextID
	click.Timestamp = time.Now()
	m.nextID++
	m.clicks[click.LinkID] = append(m.clicks[click.LinkID], click)
	return nil
}

func (m *MockClickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.clicks[linkID])), nil
}

func (m *MockClickRepository) GetDailyStats(ctx context.Context, linkID int64, days int) ([]models.DailyClickStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	since := time.Now().AddDate(0, 0, -days)
	perDay := make(map[string]int64)
	for _, click := range m.clicks[linkID] {
		if click.Timestamp.After(since) {
			perDay[click.Timestamp.Format("2006-01-02")]++
		}
	}

	stats := make([]models.DailyClickStats, 0, len(perDay))
	for date, clicks := range perDay {
		stats = append(stats, models.DailyClickStats{Date: date, Clicks: clicks})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date > stats[j].Date })
	return stats, nil
}

// Events returns recorded click events for a link
func (m *MockClickRepository) Events(linkID int64) []*models.ClickEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*models.ClickEvent(nil), m.clicks[linkID]...)
}

// MockRevenueRepository implements repository.RevenueRepository for testing
type MockRevenueRepository struct {
	mu     sync.RWMutex
	links  *MockLinkRepository
	events []*models.RevenueEvent
	nextID int64
}

func NewMockRevenueRepository(links *MockLinkRepository) *MockRevenueRepository {
	return &MockRevenueRepository{
		links:  links,
		nextID: 1,
	}
}

func (m *MockRevenueRepository) RecordRevenue(ctx context.Context, ownerID int64, event *models.RevenueEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.links.addRevenue(event.LinkID, ownerID, event.Amount) {
		return repository.ErrLinkNotFound
	}

	event.ID = m.nextID
	event.Timestamp = time.Now()
	m.nextID++
	m.events = append(m.events, event)
	return nil
}

func (m *MockRevenueRepository) Events() []*models.RevenueEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*models.RevenueEvent(nil), m.events...)
}

// MockStatsRepository implements repository.StatsRepository over MockLinkRepository
type MockStatsRepository struct {
	links *MockLinkRepository
}

func NewMockStatsRepository(links *MockLinkRepository) *MockStatsRepository {
	return &MockStatsRepository{links: links}
}

func (m *MockStatsRepository) DashboardTotals(ctx context.Context, ownerID int64) (*models.DashboardStats, error) {
	m.links.mu.RLock()
	defer m.links.mu.RUnlock()

	stats := &models.DashboardStats{}
	for _, link := range m.links.links {
		if link.UserID != ownerID {
			continue
		}
		stats.TotalLinks++
		stats.TotalClicks += link.Clicks
		stats.TotalRevenue += link.Revenue
		if link.Status == models.LinkStatusActive {
			stats.ActiveCampaigns++
		}
	}
	return stats, nil
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repository.ErrUserExists
		}
	}

	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.nextID++

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
