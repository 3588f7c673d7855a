package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutor-server/internal/auth"
	"tutor-server/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "middleware-secret"

func newServer(t *testing.T) (*echo.Echo, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	verifier, err := auth.NewJWTVerifier(secret, zap.NewNop())
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.EchoZapLogger(zap.New(core)))
	e.GET("/me", func(c echo.Context) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, userID.String())
	}, middleware.RequireUser(verifier, zap.NewNop()))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})
	return e, logs
}

func TestRequireUser(t *testing.T) {
	e, _ := newServer(t)
	userID := uuid.New()
	token, err := auth.SignToken(secret, userID, time.Hour)
	require.NoError(t, err)
	expired, err := auth.SignToken(secret, userID, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"garbage", "Bearer abc", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), rec.Body.String())
			}
		})
	}
}

func TestEchoZapLogger(t *testing.T) {
	e, logs := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Server error", entries[0].Message)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[0].ContextMap()["status"])
	assert.Equal(t, "Client error", entries[1].Message)
}
