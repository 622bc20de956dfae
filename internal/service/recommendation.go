package service

import (
	"context"

	"github.com/forkcast/forkcast-api/internal/ai"
	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/forkcast/forkcast-api/internal/logger"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/query"
	"github.com/forkcast/forkcast-api/internal/repository"
	"go.uber.org/zap"
)

// RecommendationService is the recommendation client: it shapes one
// request specification from the criteria, performs the single external
// call, and keeps diagnostics records of completed searches.
type RecommendationService struct {
	Cfg      *config.Config
	Builder  *query.Builder
	Provider ai.RecommendationProvider
	Repo     repository.SearchHistoryRepo
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(cfg *config.Config, builder *query.Builder, provider ai.RecommendationProvider, repo repository.SearchHistoryRepo) *RecommendationService {
	return &RecommendationService{
		Cfg:      cfg,
		Builder:  builder,
		Provider: provider,
		Repo:     repo,
	}
}

// Search derives the request specification and fetches recommendations.
// Single attempt; error classification is the provider's.
func (s *RecommendationService) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Restaurant, error) {
	spec := s.Builder.Build(criteria)
	return s.Provider.FetchRecommendations(ctx, spec)
}

// RecordSearch persists one completed search. Best-effort: a storage
// failure is logged, never propagated into the search lifecycle.
func (s *RecommendationService) RecordSearch(rec *models.SearchRecord) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.CreateRecord(rec); err != nil {
		logger.Get().Warn("failed to record search",
			zap.String("client_id", rec.ClientID),
			zap.Error(err),
		)
	}
}

// RecentSearches returns a client's most recent recorded searches.
func (s *RecommendationService) RecentSearches(clientID string, limit int) ([]models.SearchRecord, error) {
	if s.Repo == nil {
		return []models.SearchRecord{}, nil
	}
	return s.Repo.GetRecentByClient(clientID, limit)
}
