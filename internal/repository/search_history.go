package repository

import (
	"errors"

	"github.com/forkcast/forkcast-api/internal/models"
	"gorm.io/gorm"
)

// SearchHistoryRepository is a repository for completed-search records.
type SearchHistoryRepository struct {
	DB *gorm.DB
}

// NewSearchHistoryRepository creates a new SearchHistoryRepository.
func NewSearchHistoryRepository(db *gorm.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{DB: db}
}

// CreateRecord stores one completed search.
func (r *SearchHistoryRepository) CreateRecord(rec *models.SearchRecord) error {
	return r.DB.Create(rec).Error
}

// GetRecentByClient retrieves a client's most recent searches, newest first.
func (r *SearchHistoryRepository) GetRecentByClient(clientID string, limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []models.SearchRecord
	err := r.DB.Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "No searches recorded for client"}
		}
		return nil, err
	}

	return records, nil
}

// CountByOutcome counts recorded searches with the given outcome.
func (r *SearchHistoryRepository) CountByOutcome(outcome models.SearchOutcome) (int64, error) {
	var count int64
	err := r.DB.Model(&models.SearchRecord{}).
		Where("outcome = ?", outcome).
		Count(&count).Error
	return count, err
}

// Compile-time interface check.
var _ SearchHistoryRepo = (*SearchHistoryRepository)(nil)
