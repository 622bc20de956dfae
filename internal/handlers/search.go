package handlers

import (
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/forkcast/forkcast-api/internal/middleware"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/search"
	"github.com/forkcast/forkcast-api/internal/service"
	"github.com/gin-gonic/gin"
)

// SearchHandler is the handler for search-related requests.
type SearchHandler struct {
	Service *service.RecommendationService
	Manager *search.Manager
}

// NewSearchHandler is the constructor function for initializing a new SearchHandler.
func NewSearchHandler(svc *service.RecommendationService, manager *search.Manager) *SearchHandler {
	return &SearchHandler{Service: svc, Manager: manager}
}

// session resolves the caller's search session from the verified token.
func (h *SearchHandler) session(c *gin.Context) (*search.Orchestrator, bool) {
	clientID, ok := middleware.ClientIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing client identity"})
		return nil, false
	}
	return h.Manager.Session(clientID), true
}

// StartCitySearch begins a city/category search for the caller's session.
// An optional body applies a criteria update before the search starts.
func (h *SearchHandler) StartCitySearch(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var body struct {
		City     *models.City `json:"city"`
		Category *string      `json:"category"`
		FreeText *string      `json:"free_text"`
	}
	// Body is optional; an empty body starts with the current criteria.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if body.City != nil && !body.City.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown city"})
			return
		}
		orch.UpdateCriteria(search.CriteriaUpdate{
			City:     body.City,
			Category: body.Category,
			FreeText: body.FreeText,
		})
	}

	orch.StartCitySearch()
	c.JSON(http.StatusAccepted, gin.H{"state": orch.State()})
}

// StartGPSSearch begins a position-based search. A client that already
// acquired a device fix sends it in the body; without one, the server-side
// location provider runs the acquisition.
func (h *SearchHandler) StartGPSSearch(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if body.Latitude != nil || body.Longitude != nil {
		if body.Latitude == nil || body.Longitude == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Both latitude and longitude are required"})
			return
		}
		if !govalidator.InRangeFloat64(*body.Latitude, -90, 90) ||
			!govalidator.InRangeFloat64(*body.Longitude, -180, 180) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates out of range"})
			return
		}
		orch.StartGPSSearchAt(*body.Latitude, *body.Longitude)
	} else {
		orch.StartGPSSearch()
	}

	c.JSON(http.StatusAccepted, gin.H{"state": orch.State()})
}

// UpdateCriteria applies a partial criteria update to the caller's session
// without starting a search.
func (h *SearchHandler) UpdateCriteria(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var body struct {
		City     *models.City `json:"city"`
		Category *string      `json:"category"`
		FreeText *string      `json:"free_text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if body.City != nil && !body.City.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown city"})
		return
	}

	criteria := orch.UpdateCriteria(search.CriteriaUpdate{
		City:     body.City,
		Category: body.Category,
		FreeText: body.FreeText,
	})
	c.JSON(http.StatusOK, gin.H{"criteria": criteria})
}

// GetState returns the current state snapshot of the caller's session.
func (h *SearchHandler) GetState(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": orch.State()})
}

// GetHistory returns the caller's most recent recorded searches.
func (h *SearchHandler) GetHistory(c *gin.Context) {
	clientID, ok := middleware.ClientIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing client identity"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := parseLimitParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.Service.RecentSearches(clientID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load search history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}
