package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/heartthread-backend/internal/platform/ctxutil"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

func signed(t *testing.T, secret, subject string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), "s3cret")

	r := gin.New()
	r.Use(am.RequireAuth())
	r.GET("/users/:user_id", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if !CallerAllowed(c, c.Param("user_id")) {
			c.Status(http.StatusForbidden)
			return
		}
		c.String(http.StatusOK, rd.UserID)
	})

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("/users/u1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/users/u1", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/users/u1", "Bearer "+signed(t, "other", "u1", time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/users/u1", "Bearer "+signed(t, "s3cret", "u1", time.Now().Add(-time.Minute))).Code)

	ok := do("/users/u1", "Bearer "+signed(t, "s3cret", "u1", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "u1", ok.Body.String())

	assert.Equal(t, http.StatusForbidden, do("/users/u2", "Bearer "+signed(t, "s3cret", "u1", time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusOK, do("/users/u1?token="+signed(t, "s3cret", "u1", time.Now().Add(time.Hour)), "").Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(0.001, 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own bucket")
}

func TestRateLimiterDisabled(t *testing.T) {
	var rl *RateLimiter
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestRequestLoggerReportsHandlerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(logger.FromZap(zap.New(core))))
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("consume credit: database is locked"))
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "consume credit: database is locked", entries[0].ContextMap()["error"])
	_, hasErr := entries[1].ContextMap()["error"]
	assert.False(t, hasErr)
}
