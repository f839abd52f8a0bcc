package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartinventory/backend/internal/dataset"
	"github.com/smartinventory/backend/internal/domain"
	"github.com/smartinventory/backend/internal/repository/memory"
	"github.com/smartinventory/backend/internal/service"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := memory.NewHistoryStore()
	metrics := service.NewMetrics()
	resolver := service.NewShelfLifeResolver([]domain.ShelfLifeEntry{
		{Item: "milk", Days: 7},
		{Item: "rice", Days: 365},
	}, nil)
	// no estimator: the learned path is unavailable
	engine := service.NewSpoilageEngine(resolver, nil, store, service.WithMetrics(metrics))
	// no API key: every forecast is degraded
	weather := service.NewWeatherService("", time.Second, service.WithWeatherMetrics(metrics))
	recSvc := service.NewRecommendationService(weather, engine, store, time.Second)
	wasteSvc := service.NewWasteService(&dataset.Wastage{
		RawRows: 4,
		Records: []domain.WastageRecord{
			{Commodity: "rice", LossPercentage: 4},
			{Commodity: "tomatoes", LossPercentage: 20},
			{Commodity: "maize", LossPercentage: 8},
		},
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(recSvc, wasteSvc, store, nil), metrics.Registry())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func recommendBody(item, category, city string, arrival time.Time) string {
	b, _ := json.Marshal(service.RecommendationRequest{
		Item:        item,
		Category:    category,
		ArrivalDate: arrival.Format(domain.DateLayout),
		City:        city,
	})
	return string(b)
}

func TestRecommend(t *testing.T) {
	app := setupTestApp(t)

	code, body := doJSON(t, app, fiber.MethodPost, "/api/v1/recommend",
		recommendBody("Milk", "dairy", "Singapore", time.Now().AddDate(0, 0, -1)))
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "milk", data["matched_item"])
	assert.Equal(t, "rule_based", data["path"])
	assert.Contains(t, data["weather_explanation"], "unavailable")
	assert.NotEmpty(t, data["recommendation"])
}

func TestRecommend_Validation(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"item":`},
		{"missing item", `{"category":"dairy","arrival_date":"2024-05-01","city":"Oslo"}`},
		{"missing city", `{"item":"milk","arrival_date":"2024-05-01"}`},
		{"bad date", `{"item":"milk","arrival_date":"May 1st","city":"Oslo"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, fiber.MethodPost, "/recommend", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Equal(t, true, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestRecommend_LearnedPathWithoutModel(t *testing.T) {
	app := setupTestApp(t)

	code, body := doJSON(t, app, fiber.MethodPost, "/recommend",
		recommendBody("cashews", "nuts", "Singapore", time.Now()))
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, true, body["error"])

	// the rule path still works
	code, _ = doJSON(t, app, fiber.MethodPost, "/recommend",
		recommendBody("rice", "pantry", "Singapore", time.Now()))
	assert.Equal(t, fiber.StatusOK, code)
}

func TestHistory(t *testing.T) {
	app := setupTestApp(t)

	for i := 0; i < 2; i++ {
		code, _ := doJSON(t, app, fiber.MethodPost, "/recommend",
			recommendBody("Milk", "dairy", "Singapore", time.Now()))
		require.Equal(t, fiber.StatusOK, code)
	}

	code, body := doJSON(t, app, fiber.MethodGet, "/history?city=SINGAPORE", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "singapore", body["city"])
	assert.EqualValues(t, 1, body["count"])

	code, body = doJSON(t, app, fiber.MethodDelete, "/api/v1/history?city=singapore&item=milk", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 2, body["deleted"])

	code, body = doJSON(t, app, fiber.MethodGet, "/history?city=singapore", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])

	code, _ = doJSON(t, app, fiber.MethodGet, "/history", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestGlobalWasteSteps(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/global_waste_steps?limit=2", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var steps []domain.WasteStep
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&steps))
	require.Len(t, steps, 4)
	assert.Equal(t, "top_waste_items", steps[3].Step)
	require.Len(t, steps[3].Top, 2)
	assert.Equal(t, "tomatoes", steps[3].Top[0].Commodity)
}

func TestModelInfoAndHealth(t *testing.T) {
	app := setupTestApp(t)

	code, body := doJSON(t, app, fiber.MethodGet, "/model_info", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, false, body["available"])

	code, body = doJSON(t, app, fiber.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["history"])
	assert.Equal(t, "unavailable", checks["model"])
}

func TestWeatherDegraded(t *testing.T) {
	app := setupTestApp(t)

	code, body := doJSON(t, app, fiber.MethodGet, "/weather", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, DefaultCity, body["location"])
	assert.NotEmpty(t, body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t)
	code, _ := doJSON(t, app, fiber.MethodPost, "/recommend",
		recommendBody("milk", "dairy", "Singapore", time.Now()))
	require.Equal(t, fiber.StatusOK, code)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "spoilage_estimates_total")
	assert.Contains(t, string(raw), "weather_fetch_total")
}
