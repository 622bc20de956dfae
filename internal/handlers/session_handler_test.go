package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/forkcast/forkcast-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

func newTestSessionHandler() (*SessionHandler, *config.Config) {
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			JwtSecretKey: "test-jwt-secret-key",
		},
	}
	return NewSessionHandler(cfg), cfg
}

func TestCreateSession_Success(t *testing.T) {
	handler, _ := newTestSessionHandler()

	r := gin.New()
	r.POST("/session", handler.CreateSession)

	req := httptest.NewRequest("POST", "/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["client_id"] == nil || resp["client_id"] == "" {
		t.Error("response should contain 'client_id'")
	}
	if resp["access_token"] == nil {
		t.Error("response should contain 'access_token'")
	}
	if resp["refresh_token"] == nil {
		t.Error("response should contain 'refresh_token'")
	}
}

func TestCreateSession_TokenUsableOnProtectedRoutes(t *testing.T) {
	handler, cfg := newTestSessionHandler()

	r := gin.New()
	r.POST("/session", handler.CreateSession)
	r.GET("/protected", middleware.VerifyTokenMiddleware(cfg), func(c *gin.Context) {
		clientID, _ := middleware.ClientIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"client_id": clientID})
	})

	req := httptest.NewRequest("POST", "/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var created struct {
		ClientID    string `json:"client_id"`
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+created.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp struct {
		ClientID string `json:"client_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ClientID != created.ClientID {
		t.Errorf("client_id = %q, want %q", resp.ClientID, created.ClientID)
	}
}

func TestRefreshSession_Success(t *testing.T) {
	handler, _ := newTestSessionHandler()

	r := gin.New()
	r.POST("/session", handler.CreateSession)
	r.POST("/session/refresh", handler.RefreshSession)

	req := httptest.NewRequest("POST", "/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var created struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	body := `{"refresh_token": "` + created.RefreshToken + `"}`
	req = httptest.NewRequest("POST", "/session/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["access_token"] == nil || resp["refresh_token"] == nil {
		t.Error("refresh should issue a new token pair")
	}
}

func TestRefreshSession_AccessTokenRejected(t *testing.T) {
	handler, cfg := newTestSessionHandler()

	r := gin.New()
	r.POST("/session/refresh", handler.RefreshSession)

	accessToken, err := generateAccessToken("client-1", cfg.EnvVars.JwtSecretKey)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	body := `{"refresh_token": "` + accessToken + `"}`
	req := httptest.NewRequest("POST", "/session/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d (access token must not refresh a session)", w.Code, http.StatusUnauthorized)
	}
}

func TestRefreshSession_MissingBody(t *testing.T) {
	handler, _ := newTestSessionHandler()

	r := gin.New()
	r.POST("/session/refresh", handler.RefreshSession)

	req := httptest.NewRequest("POST", "/session/refresh", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
