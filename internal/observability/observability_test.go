package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/civicdesk/grievance-portal/internal/config"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "not-a-level"}, "grievance-portal")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "DEBUG"}, "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/complaints", "POST", 201, 10*time.Millisecond)
	m.RecordRequest("/complaints", "POST", 201, 30*time.Millisecond)
	m.RecordError("/complaints", "POST", apperrors.CodeValidationFailed)

	snap := m.Snapshot()
	stats := snap.Requests["/complaints|POST|201"]
	assert.Equal(t, int64(2), stats.Count)
	assert.InDelta(t, 20.0, stats.AvgLatencyMS, 0.001)
	assert.Equal(t, int64(1), snap.Errors["/complaints|POST|VALIDATION_FAILED"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperrors.NewNotFound("complaint", nil) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(RequestIDHeader))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/ok|GET|200"].Count)
	assert.Equal(t, int64(1), snap.Requests["/missing|GET|404"].Count)
	assert.Equal(t, int64(1), snap.Requests["/boom|GET|500"].Count)

	assert.Equal(t, 3, logs.FilterMessage("request").Len())
	assert.Equal(t, 1, logs.FilterMessage("request").FilterField(zap.String("request_id", "req-1")).Len())
}
