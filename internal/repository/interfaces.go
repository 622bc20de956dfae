package repository

import "github.com/forkcast/forkcast-api/internal/models"

// SearchHistoryRepo is the interface for search diagnostics operations.
type SearchHistoryRepo interface {
	CreateRecord(rec *models.SearchRecord) error
	GetRecentByClient(clientID string, limit int) ([]models.SearchRecord, error)
	CountByOutcome(outcome models.SearchOutcome) (int64, error)
}
