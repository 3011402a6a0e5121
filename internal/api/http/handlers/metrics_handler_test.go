package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/referral-service/internal/observability"
)

func TestMetricsTotals(t *testing.T) {
	m := observability.NewMetrics()
	m.RecordRequest("/referrals", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/referrals", "GET", 200, 7*time.Millisecond)
	m.RecordError("/referrals/x", "GET", "NOT_FOUND")

	app := fiber.New()
	app.Get("/metrics", NewMetricsHandler(m).Totals)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Requests map[string]int64 `json:"requests"`
			Errors   map[string]int64 `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 2, body.Data.Requests["/referrals|GET|200"])
	assert.EqualValues(t, 1, body.Data.Errors["/referrals/x|GET|NOT_FOUND"])
}
