package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/forkcast/forkcast-api/internal/ai"
	"github.com/forkcast/forkcast-api/internal/geo"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/query"
	"github.com/forkcast/forkcast-api/internal/repository"
)

// --- MockRecommendationProvider ---

// MockRecommendationProvider is a mock implementation of ai.RecommendationProvider.
type MockRecommendationProvider struct {
	FetchRecommendationsFunc func(ctx context.Context, spec query.RequestSpec) ([]models.Restaurant, error)
}

func (m *MockRecommendationProvider) FetchRecommendations(ctx context.Context, spec query.RequestSpec) ([]models.Restaurant, error) {
	if m.FetchRecommendationsFunc != nil {
		return m.FetchRecommendationsFunc(ctx, spec)
	}
	return nil, fmt.Errorf("FetchRecommendations not configured")
}

// --- MockLocationProvider ---

// MockLocationProvider is a mock implementation of geo.LocationProvider.
type MockLocationProvider struct {
	RequestPositionFunc func(ctx context.Context, opts geo.Options) (*geo.Position, error)
}

func (m *MockLocationProvider) RequestPosition(ctx context.Context, opts geo.Options) (*geo.Position, error) {
	if m.RequestPositionFunc != nil {
		return m.RequestPositionFunc(ctx, opts)
	}
	return nil, fmt.Errorf("RequestPosition not configured")
}

// --- MockSearchHistoryRepo ---

// MockSearchHistoryRepo is an in-memory mock implementation of
// repository.SearchHistoryRepo.
type MockSearchHistoryRepo struct {
	mu      sync.Mutex
	Records []*models.SearchRecord
	NextID  uint

	// Error overrides: set these to force specific methods to return errors.
	CreateRecordErr      error
	GetRecentByClientErr error
}

// NewMockSearchHistoryRepo creates a new MockSearchHistoryRepo.
func NewMockSearchHistoryRepo() *MockSearchHistoryRepo {
	return &MockSearchHistoryRepo{NextID: 1}
}

func (m *MockSearchHistoryRepo) CreateRecord(rec *models.SearchRecord) error {
	if m.CreateRecordErr != nil {
		return m.CreateRecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.NextID
	m.NextID++
	m.Records = append(m.Records, rec)
	return nil
}

func (m *MockSearchHistoryRepo) GetRecentByClient(clientID string, limit int) ([]models.SearchRecord, error) {
	if m.GetRecentByClientErr != nil {
		return nil, m.GetRecentByClientErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []models.SearchRecord
	for i := len(m.Records) - 1; i >= 0 && len(records) < limit; i-- {
		if m.Records[i].ClientID == clientID {
			records = append(records, *m.Records[i])
		}
	}
	return records, nil
}

func (m *MockSearchHistoryRepo) CountByOutcome(outcome models.SearchOutcome) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, rec := range m.Records {
		if rec.Outcome == outcome {
			count++
		}
	}
	return count, nil
}

// Len returns how many records were stored.
func (m *MockSearchHistoryRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// Compile-time interface checks.
var _ ai.RecommendationProvider = (*MockRecommendationProvider)(nil)
var _ geo.LocationProvider = (*MockLocationProvider)(nil)
var _ repository.SearchHistoryRepo = (*MockSearchHistoryRepo)(nil)
