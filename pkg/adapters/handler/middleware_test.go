package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg)

	tests := []struct {
		name           string
		path           string
		cookieName     string
		cookieValue    string
		expectedStatus int
	}{
		{
			name:           "No Cookie - API",
			path:           "/api/requests/abc123",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Cookie - Browser",
			path:           "/api/v1/dashboard",
			expectedStatus: http.StatusTemporaryRedirect,
		},
		{
			name:           "Invalid Cookie - API",
			path:           "/api/v1/campaigns",
			cookieName:     "auth_token",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret - API",
			path:           "/api/v1/campaigns",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, "other-secret", time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Cookie - API",
			path:           "/api/v1/campaigns",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, -time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie - API",
			path:           "/api/v1/campaigns",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, 5*time.Minute),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookieName != "" {
				req.AddCookie(&http.Cookie{Name: tt.cookieName, Value: tt.cookieValue})
			}

			rr := httptest.NewRecorder()
			var email string
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				email = UserEmailFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "test@example.com", email)
			}
		})
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "given-id", rr.Header().Get("X-Request-ID"))
}

func generateTestToken(t *testing.T, secret string, ttl time.Duration) string {
	expirationTime := time.Now().Add(ttl)
	claims := &jwt.RegisteredClaims{
		Subject:   "test@example.com",
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
