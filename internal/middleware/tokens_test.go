package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing"

func init() {
	gin.SetMode(gin.TestMode)
}

func makeTestToken(clientID string, tokenType string, expiry time.Time, secret string) string {
	claims := jwt.MapClaims{
		"client_id": clientID,
		"exp":       expiry.Unix(),
		"iat":       time.Now().Unix(),
		"type":      tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, _ := token.SignedString([]byte(secret))
	return s
}

func setupTokenRouter() (*gin.Engine, *config.Config) {
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			JwtSecretKey: testSecret,
		},
	}

	r := gin.New()
	r.Use(VerifyTokenMiddleware(cfg))
	r.GET("/test", func(c *gin.Context) {
		clientID, _ := c.Get("client_id")
		c.JSON(http.StatusOK, gin.H{"client_id": clientID})
	})
	return r, cfg
}

func TestVerifyToken_ValidAccessToken(t *testing.T) {
	r, _ := setupTokenRouter()

	token := makeTestToken("client-42", "access", time.Now().Add(15*time.Minute), testSecret)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestVerifyToken_QueryParamToken(t *testing.T) {
	r, _ := setupTokenRouter()

	token := makeTestToken("client-42", "access", time.Now().Add(15*time.Minute), testSecret)

	req := httptest.NewRequest("GET", "/test?token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (query param token should be accepted)", w.Code, http.StatusOK)
	}
}

func TestVerifyToken_MissingToken(t *testing.T) {
	r, _ := setupTokenRouter()

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyToken_ExpiredToken(t *testing.T) {
	r, _ := setupTokenRouter()

	token := makeTestToken("client-42", "access", time.Now().Add(-1*time.Hour), testSecret)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyToken_InvalidToken(t *testing.T) {
	r, _ := setupTokenRouter()

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid.token.here")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	r, _ := setupTokenRouter()

	token := makeTestToken("client-42", "access", time.Now().Add(15*time.Minute), "wrong-secret")

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyToken_RefreshTokenRejected(t *testing.T) {
	r, _ := setupTokenRouter()

	token := makeTestToken("client-42", "refresh", time.Now().Add(30*24*time.Hour), testSecret)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d (refresh token should be rejected for access routes)", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyToken_SetsClientIDInContext(t *testing.T) {
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			JwtSecretKey: testSecret,
		},
	}

	var capturedClientID string
	r := gin.New()
	r.Use(VerifyTokenMiddleware(cfg))
	r.GET("/test", func(c *gin.Context) {
		clientID, ok := ClientIDFromContext(c)
		if !ok {
			t.Error("client_id not set in context")
			return
		}
		capturedClientID = clientID
		c.JSON(http.StatusOK, gin.H{})
	})

	token := makeTestToken("client-99", "access", time.Now().Add(15*time.Minute), testSecret)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedClientID != "client-99" {
		t.Errorf("client_id in context = %q, want %q", capturedClientID, "client-99")
	}
}

func TestVerifyToken_MissingClientIDClaim(t *testing.T) {
	r, _ := setupTokenRouter()

	claims := jwt.MapClaims{
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
		"iat":  time.Now().Unix(),
		"type": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, _ := token.SignedString([]byte(testSecret))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
