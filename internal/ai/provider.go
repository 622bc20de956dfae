package ai

import (
	"context"

	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/query"
)

// RecommendationProvider performs the external structured-generation call
// and returns normalized restaurant entities.
//
// A call makes exactly one outbound request: no caching, no deduplication,
// no retry. Failures are classified: *UpstreamError for transport/service
// failures, *MalformedResponseError when the reply cannot be normalized
// into an array. An empty-but-valid array is a success.
type RecommendationProvider interface {
	FetchRecommendations(ctx context.Context, spec query.RequestSpec) ([]models.Restaurant, error)
}
