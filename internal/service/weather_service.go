package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/smartinventory/backend/internal/domain"
)

// ForecastDays is how far ahead forecasts are requested.
const ForecastDays = 3

// ForecastSource returns a forecast for a city. Implementations never fail:
// problems are reported through Forecast.Error.
type ForecastSource interface {
	Fetch(ctx context.Context, city string) domain.Forecast
}

// WeatherService fetches forecasts from weatherapi.com
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
}

// WeatherOption customises a WeatherService.
type WeatherOption func(*WeatherService)

// WithBaseURL points the client at another weatherapi-compatible host.
func WithBaseURL(u string) WeatherOption {
	return func(s *WeatherService) { s.baseURL = u }
}

// WithRateLimit caps outgoing requests; rps <= 0 disables the cap.
func WithRateLimit(rps float64, burst int) WeatherOption {
	return func(s *WeatherService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithWeatherMetrics records fetch outcomes on m.
func WithWeatherMetrics(m *Metrics) WeatherOption {
	return func(s *WeatherService) { s.metrics = m }
}

// NewWeatherService creates a new weather service. timeout bounds every fetch.
func NewWeatherService(apiKey string, timeout time.Duration, opts ...WeatherOption) *WeatherService {
	s := &WeatherService{
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// weatherAPIResponse is the subset of forecast.json we read. Day attributes are
// pointers so that omitted values stay distinguishable from zero.
type weatherAPIResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC          *float64 `json:"avgtemp_c"`
				MaxTempC          *float64 `json:"maxtemp_c"`
				MinTempC          *float64 `json:"mintemp_c"`
				AvgHumidity       *float64 `json:"avghumidity"`
				DailyChanceOfRain *float64 `json:"daily_chance_of_rain"`
				Condition         struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Fetch returns the three-day forecast for city. A missing API key or any
// network, status or decode failure yields an empty forecast with Error set.
func (s *WeatherService) Fetch(ctx context.Context, city string) domain.Forecast {
	if s.apiKey == "" {
		s.metrics.observeWeather("no_api_key")
		return degraded(city, "weather API key not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.metrics.observeWeather("rate_limited")
		return degraded(city, fmt.Sprintf("rate limit wait canceled: %v", err))
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("q", city)
	params.Set("days", fmt.Sprintf("%d", ForecastDays))
	params.Set("aqi", "no")
	params.Set("alerts", "yes")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/forecast.json?"+params.Encode(), nil)
	if err != nil {
		s.metrics.observeWeather("error")
		return degraded(city, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.observeWeather("error")
		return degraded(city, fmt.Sprintf("weather request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.observeWeather("error")
		return degraded(city, fmt.Sprintf("weather API returned status %d", resp.StatusCode))
	}

	var wr weatherAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		s.metrics.observeWeather("error")
		return degraded(city, fmt.Sprintf("failed to decode weather response: %v", err))
	}

	forecast := domain.Forecast{
		Location: wr.Location.Name,
		Country:  wr.Location.Country,
		Days:     make([]domain.ForecastDay, 0, len(wr.Forecast.ForecastDay)),
	}
	if forecast.Location == "" {
		forecast.Location = city
	}
	for _, fd := range wr.Forecast.ForecastDay {
		forecast.Days = append(forecast.Days, domain.ForecastDay{
			Date:         fd.Date,
			AvgTempC:     fd.Day.AvgTempC,
			MaxTempC:     fd.Day.MaxTempC,
			MinTempC:     fd.Day.MinTempC,
			ChanceOfRain: fd.Day.DailyChanceOfRain,
			Condition:    fd.Day.Condition.Text,
			AvgHumidity:  fd.Day.AvgHumidity,
		})
	}

	s.metrics.observeWeather("ok")
	return forecast
}

func degraded(city, reason string) domain.Forecast {
	return domain.Forecast{
		Location: city,
		Days:     []domain.ForecastDay{},
		Error:    reason,
	}
}

var _ ForecastSource = (*WeatherService)(nil)
