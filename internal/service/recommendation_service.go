package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartinventory/backend/internal/domain"
)

// RecommendationRequest is the raw client input for a recommendation.
type RecommendationRequest struct {
	Item        string `json:"item"`
	Category    string `json:"category"`
	ArrivalDate string `json:"arrival_date"`
	City        string `json:"city"`
}

// Validate turns the request into an inventory item. Failures wrap
// domain.ErrInvalidInput.
func (r RecommendationRequest) Validate() (domain.InventoryItem, error) {
	item := strings.TrimSpace(r.Item)
	city := strings.TrimSpace(r.City)
	if item == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: item is required", domain.ErrInvalidInput)
	}
	if city == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}
	arrival, err := time.Parse(domain.DateLayout, strings.TrimSpace(r.ArrivalDate))
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("%w: arrival_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	category := domain.Normalize(r.Category)
	if category == "" {
		category = domain.CategoryOther
	}
	return domain.InventoryItem{
		Item:        item,
		Category:    category,
		ArrivalDate: arrival,
		City:        city,
	}, nil
}

// Recommendation is the estimate together with the forecast it was based on.
type Recommendation struct {
	domain.SpoilageEstimate
	Item     string               `json:"item"`
	Category string               `json:"category"`
	City     string               `json:"city"`
	Location string               `json:"location"`
	Country  string               `json:"country"`
	Forecast []domain.ForecastDay `json:"forecast"`
}

// RecommendationService fetches the weather for an item's city and runs the
// spoilage engine on it.
type RecommendationService struct {
	weather      ForecastSource
	engine       *SpoilageEngine
	history      HistoryRepository
	fetchTimeout time.Duration
	now          func() time.Time
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	weather ForecastSource,
	engine *SpoilageEngine,
	history HistoryRepository,
	fetchTimeout time.Duration,
) *RecommendationService {
	return &RecommendationService{
		weather:      weather,
		engine:       engine,
		history:      history,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// Recommend validates req, fetches the forecast and estimates spoilage. A
// failed forecast fetch degrades the estimate but never fails it.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendationRequest) (Recommendation, error) {
	item, err := req.Validate()
	if err != nil {
		return Recommendation{}, err
	}

	forecast := s.Forecast(ctx, item.City)

	est, err := s.engine.Estimate(ctx, item, forecast, s.now())
	if err != nil {
		return Recommendation{}, err
	}

	return Recommendation{
		SpoilageEstimate: est,
		Item:             item.Item,
		Category:         item.Category,
		City:             item.City,
		Location:         forecast.Location,
		Country:          forecast.Country,
		Forecast:         forecast.Days,
	}, nil
}

// Forecast fetches the forecast for city within the configured timeout
func (s *RecommendationService) Forecast(ctx context.Context, city string) domain.Forecast {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.weather.Fetch(ctx, city)
}

// History returns mean loss per item for city
func (s *RecommendationService) History(ctx context.Context, city string) ([]domain.ItemLoss, error) {
	if strings.TrimSpace(city) == "" {
		return nil, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}
	return s.history.QueryByCity(ctx, city)
}

// DeleteHistory removes the history of an item in city
func (s *RecommendationService) DeleteHistory(ctx context.Context, city, item string) (int, error) {
	if strings.TrimSpace(city) == "" || strings.TrimSpace(item) == "" {
		return 0, fmt.Errorf("%w: city and item are required", domain.ErrInvalidInput)
	}
	return s.history.DeleteByCityAndItem(ctx, city, item)
}

// ModelInfo describes the loss model behind the learned path
func (s *RecommendationService) ModelInfo() ModelInfo {
	return s.engine.ModelInfo()
}
