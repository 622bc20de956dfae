package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/query"
	"github.com/forkcast/forkcast-api/internal/search"
	"github.com/forkcast/forkcast-api/internal/service"
	"github.com/forkcast/forkcast-api/internal/testutil"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withTestClientID stands in for the token middleware.
func withTestClientID(clientID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_id", clientID)
		c.Next()
	}
}

func newTestSearchHandler() (*SearchHandler, *testutil.MockRecommendationProvider, *testutil.MockSearchHistoryRepo) {
	provider := &testutil.MockRecommendationProvider{
		FetchRecommendationsFunc: func(ctx context.Context, spec query.RequestSpec) ([]models.Restaurant, error) {
			return testutil.TestRestaurants(), nil
		},
	}
	repo := testutil.NewMockSearchHistoryRepo()
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			JwtSecretKey: "test-jwt-secret-key",
		},
	}
	svc := service.NewRecommendationService(cfg, query.NewBuilder(nil), provider, repo)
	manager := search.NewManager(svc, nil, svc)
	return NewSearchHandler(svc, manager), provider, repo
}

func newSearchRouter(handler *SearchHandler, clientID string) *gin.Engine {
	r := gin.New()
	auth := withTestClientID(clientID)
	r.POST("/search/city", auth, handler.StartCitySearch)
	r.POST("/search/gps", auth, handler.StartGPSSearch)
	r.PATCH("/search/criteria", auth, handler.UpdateCriteria)
	r.GET("/search/state", auth, handler.GetState)
	r.GET("/search/history", auth, handler.GetHistory)
	return r
}

func getPhase(t *testing.T, r *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/search/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		State models.SearchState `json:"state"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return string(resp.State.Phase)
}

func waitForHandlerPhase(t *testing.T, r *gin.Engine, phase string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if getPhase(t, r) == phase {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %q, last phase: %s", phase, getPhase(t, r))
}

func TestStartCitySearch_Accepted(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"city": "batumi", "category": "Georgian"}`
	req := httptest.NewRequest("POST", "/search/city", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	waitForHandlerPhase(t, r, "success")
}

func TestStartCitySearch_EmptyBody(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	req := httptest.NewRequest("POST", "/search/city", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d (empty body starts with current criteria)", w.Code, http.StatusAccepted)
	}
}

func TestStartCitySearch_UnknownCity(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"city": "gotham"}`
	req := httptest.NewRequest("POST", "/search/city", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestStartGPSSearch_WithDeviceFix(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"latitude": 41.7151, "longitude": 44.8271}`
	req := httptest.NewRequest("POST", "/search/gps", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	waitForHandlerPhase(t, r, "success")
}

func TestStartGPSSearch_CoordinatesOutOfRange(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"latitude": 123.0, "longitude": 44.8271}`
	req := httptest.NewRequest("POST", "/search/gps", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestStartGPSSearch_PartialCoordinates(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"latitude": 41.7151}`
	req := httptest.NewRequest("POST", "/search/gps", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestStartGPSSearch_NoCapability(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	// No body and no server-side locator wired: the search still starts
	// and lands in the error phase.
	req := httptest.NewRequest("POST", "/search/gps", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}

	waitForHandlerPhase(t, r, "error")
}

func TestUpdateCriteria_Success(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"category": "Chinese"}`
	req := httptest.NewRequest("PATCH", "/search/criteria", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Criteria models.SearchCriteria `json:"criteria"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Criteria.Category != "Chinese" {
		t.Errorf("category = %q, want Chinese", resp.Criteria.Category)
	}
}

func TestUpdateCriteria_UnknownCity(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	body := `{"city": "gotham"}`
	req := httptest.NewRequest("PATCH", "/search/criteria", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetState_InitiallyIdle(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	if phase := getPhase(t, r); phase != "idle" {
		t.Errorf("phase = %q, want idle", phase)
	}
}

func TestGetHistory_ReturnsClientRecords(t *testing.T) {
	handler, _, repo := newTestSearchHandler()
	clientID := testutil.NewTestClientID()
	r := newSearchRouter(handler, clientID)

	rec := testutil.TestSearchRecord()
	rec.ClientID = clientID
	repo.CreateRecord(rec)

	req := httptest.NewRequest("GET", "/search/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		History []models.SearchRecord `json:"history"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.History) != 1 {
		t.Errorf("history length = %d, want 1", len(resp.History))
	}
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	handler, _, _ := newTestSearchHandler()
	r := newSearchRouter(handler, testutil.NewTestClientID())

	req := httptest.NewRequest("GET", "/search/history?limit=-3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchRoutes_MissingIdentity(t *testing.T) {
	handler, _, _ := newTestSearchHandler()

	r := gin.New()
	r.GET("/search/state", handler.GetState)

	req := httptest.NewRequest("GET", "/search/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
