package testutil

import (
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// TestClientID is a stable client identity for session tests.
const TestClientID = "22222222-2222-2222-2222-222222222222"

// TestCriteria creates city/category criteria with realistic fields.
func TestCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		City:     models.CityTbilisi,
		Category: "Georgian",
	}
}

// TestLiveCriteria creates position-based criteria anchored near central Tbilisi.
func TestLiveCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		City:     models.CityTbilisi,
		Category: "Trending",
		Location: models.LocationDescriptor{
			Latitude:  41.7151,
			Longitude: 44.8271,
			IsLive:    true,
		},
	}
}

// TestRestaurants creates a small result set with populated optional fields.
func TestRestaurants() []models.Restaurant {
	lat1, lng1 := 41.7095, 44.7930
	phone := "+995 32 2 123 456"
	return []models.Restaurant{
		{
			Name:              "Shavi Lomi",
			Rating:            4.6,
			ReviewCount:       1820,
			PriceLevel:        "$$",
			Cuisine:           "Georgian",
			Address:           "Zurab Kvlividze St 23, Tbilisi",
			Lat:               &lat1,
			Lng:               &lng1,
			PhoneNumber:       &phone,
			AISummary:         "Modern takes on Georgian classics in a cozy courtyard setting.",
			LikelyAggregators: []string{"Wolt", "Glovo"},
		},
		{
			Name:        "Machakhela",
			Rating:      4.2,
			ReviewCount: 950,
			PriceLevel:  "$",
			Cuisine:     "Georgian",
			Address:     "Agmashenebeli Ave 71, Tbilisi",
			AISummary:   "Reliable khachapuri chain, open late.",
		},
	}
}

// TestSearchRecord creates a recorded successful search for TestClientID.
func TestSearchRecord() *models.SearchRecord {
	return &models.SearchRecord{
		Model:       gorm.Model{ID: 1},
		ClientID:    TestClientID,
		Sequence:    1,
		City:        models.CityTbilisi,
		Category:    "Georgian",
		Outcome:     models.OutcomeSuccess,
		ResultCount: 2,
		Platforms:   pq.StringArray{"Wolt", "Glovo"},
		LatencyMS:   2400,
	}
}

// NewTestClientID returns a fresh client identity for tests that need
// isolated sessions.
func NewTestClientID() string {
	return uuid.NewString()
}
