package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/smartinventory/backend/internal/domain"
	"github.com/smartinventory/backend/pkg/utils"
)

// Inputs fed to the loss model alongside commodity and storage days.
const (
	DefaultActivity    = "Storage"
	DefaultSupplyStage = "Storage"
)

// mitigationCommodity gets an extra storage tip in the high risk tier.
const mitigationCommodity = "rice"

// DefaultLearnedCommodities are the grains the loss model was trained on.
var DefaultLearnedCommodities = []string{
	"rice", "wheat", "maize", "barley", "sorghum", "millet", "oats",
}

// SpoilageEngine turns an inventory item and a forecast into a spoilage estimate
// and records the estimated loss in the history store.
type SpoilageEngine struct {
	resolver  *ShelfLifeResolver
	estimator LossEstimator
	history   HistoryRepository
	learned   map[string]struct{}
	metrics   *Metrics
	logger    *slog.Logger
}

// EngineOption customises a SpoilageEngine.
type EngineOption func(*SpoilageEngine)

// WithMetrics records estimates on m.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *SpoilageEngine) { e.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *SpoilageEngine) { e.logger = l }
}

// WithLearnedCommodities replaces the grains allow-list of the learned path.
func WithLearnedCommodities(names []string) EngineOption {
	return func(e *SpoilageEngine) {
		e.learned = make(map[string]struct{}, len(names))
		for _, n := range names {
			e.learned[domain.Normalize(n)] = struct{}{}
		}
	}
}

// NewSpoilageEngine wires the engine. estimator may be nil, in which case only
// the rule-based path is served.
func NewSpoilageEngine(resolver *ShelfLifeResolver, estimator LossEstimator, history HistoryRepository, opts ...EngineOption) *SpoilageEngine {
	e := &SpoilageEngine{
		resolver:  resolver,
		estimator: estimator,
		history:   history,
		logger:    slog.Default(),
	}
	WithLearnedCommodities(DefaultLearnedCommodities)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelInfo describes the loaded loss model, if any.
func (e *SpoilageEngine) ModelInfo() ModelInfo {
	if e.estimator == nil {
		return ModelInfo{
			Model:    "unavailable",
			Features: []string{FeatureCommodity, FeatureActivity, FeatureSupplyStage, FeatureStorageDays},
		}
	}
	return e.estimator.Info()
}

// SelectPath picks the learned path for allow-listed grains and for every nut.
// The nuts clause deliberately skips the allow-list.
func (e *SpoilageEngine) SelectPath(item, category string) domain.ScoringPath {
	_, listed := e.learned[domain.Normalize(item)]
	category = domain.Normalize(category)
	if (listed && category == domain.CategoryGrains) || category == domain.CategoryNuts {
		return domain.PathLearned
	}
	return domain.PathRuleBased
}

// Estimate computes the spoilage estimate of item as of now.
func (e *SpoilageEngine) Estimate(ctx context.Context, item domain.InventoryItem, forecast domain.Forecast, now time.Time) (domain.SpoilageEstimate, error) {
	summary, explanation := SummarizeForecast(forecast)
	daysInStock := DaysInStock(item.ArrivalDate, now)
	matched, avgLife := e.resolver.Resolve(item.Item)
	path := e.SelectPath(item.Item, item.Category)

	var riskFactor, loss float64
	switch path {
	case domain.PathLearned:
		if e.estimator == nil {
			return domain.SpoilageEstimate{}, fmt.Errorf("spoilage: %w", domain.ErrModelUnavailable)
		}
		predicted, err := e.estimator.Predict(ctx, LossFeatures{
			Commodity:   domain.Normalize(item.Item),
			Activity:    DefaultActivity,
			SupplyStage: DefaultSupplyStage,
			StorageDays: max(daysInStock, 0),
		})
		if err != nil {
			return domain.SpoilageEstimate{}, fmt.Errorf("spoilage: failed to predict loss: %w", err)
		}
		loss = predicted
		riskFactor = math.Min(loss/100, 1)
	default:
		score := ScoreRisk(summary.AvgTempC, summary.AvgHumidity, summary.ChanceOfRain, now.Month(), item.Category)
		// scale first, clamp second: a score of 14 is 1.4 before the clamp
		riskFactor = math.Min(float64(score)/10, 1)
		loss = riskFactor * 10
	}

	adjusted := AdjustedShelfLife(avgLife, riskFactor)
	remaining := adjusted - daysInStock
	tier, recommendation := Classify(remaining, riskFactor, matched)

	if err := e.history.Append(ctx, domain.NewHistoryRecord(item.Item, item.City, loss)); err != nil {
		e.metrics.observeHistoryError()
		e.logger.Error("failed to record spoilage history", "item", item.Item, "city", item.City, "error", err)
	}

	est := domain.SpoilageEstimate{
		Recommendation:     recommendation,
		Tier:               tier,
		RiskScore:          utils.RoundTo(riskFactor*10, 2),
		RiskFactor:         utils.RoundTo(riskFactor, 4),
		LossPercentage:     utils.RoundTo(loss, 2),
		DaysInStock:        daysInStock,
		AvgShelfLife:       avgLife,
		AdjustedShelfLife:  adjusted,
		RemainingDays:      remaining,
		MatchedItem:        matched,
		Path:               path,
		Weather:            summary,
		WeatherExplanation: explanation,
	}
	e.metrics.observeEstimate(est)
	e.logger.Debug("spoilage estimated",
		"item", item.Item, "matched", matched, "path", path, "tier", tier, "risk_factor", riskFactor)

	return est, nil
}

// SummarizeForecast averages the forecast days. Missing values count as 0 and an
// empty forecast yields zero means with an explanation of why.
func SummarizeForecast(f domain.Forecast) (domain.WeatherSummary, string) {
	if len(f.Days) == 0 {
		msg := "Weather forecast unavailable; risk assumes neutral conditions."
		if f.Error != "" {
			msg = fmt.Sprintf("Weather forecast unavailable (%s); risk assumes neutral conditions.", f.Error)
		}
		return domain.WeatherSummary{}, msg
	}

	temps := make([]float64, len(f.Days))
	humidity := make([]float64, len(f.Days))
	rain := make([]float64, len(f.Days))
	for i, d := range f.Days {
		temps[i] = valueOrZero(d.AvgTempC)
		humidity[i] = valueOrZero(d.AvgHumidity)
		rain[i] = valueOrZero(d.ChanceOfRain)
	}

	s := domain.WeatherSummary{
		AvgTempC:     utils.Mean(temps),
		AvgHumidity:  utils.Mean(humidity),
		ChanceOfRain: utils.Mean(rain),
		Days:         len(f.Days),
	}

	where := f.Location
	if where == "" {
		where = "the area"
	}
	parts := []string{fmt.Sprintf("Next %d day(s) in %s: avg %.1f°C, humidity %.0f%%, rain chance %.0f%%.",
		s.Days, where, s.AvgTempC, s.AvgHumidity, s.ChanceOfRain)}
	if s.AvgTempC > 30 {
		parts = append(parts, "Heat will speed up spoilage.")
	}
	if s.AvgHumidity > 75 {
		parts = append(parts, "High humidity encourages mould.")
	}
	if s.ChanceOfRain > 70 {
		parts = append(parts, "Heavy rain is likely.")
	}
	return s, strings.Join(parts, " ")
}

// DaysInStock counts calendar days from arrival to now. Future arrivals give a
// negative count.
func DaysInStock(arrival, now time.Time) int {
	a := time.Date(arrival.Year(), arrival.Month(), arrival.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(n.Sub(a).Hours() / 24))
}

// AdjustedShelfLife shrinks avgLife by up to half depending on riskFactor and
// never returns less than one day.
func AdjustedShelfLife(avgLife int, riskFactor float64) int {
	adjusted := int(math.RoundToEven(float64(avgLife) * (1 - 0.5*riskFactor)))
	return max(adjusted, 1)
}

// Classify maps remaining days and risk factor to a tier and advice text.
func Classify(remainingDays int, riskFactor float64, matchedItem string) (domain.Tier, string) {
	switch {
	case remainingDays <= 0:
		return domain.TierSpoiled, "Spoiled: remove immediately and discard. The item is past its expected shelf life."
	case riskFactor >= 0.6:
		msg := "High risk: sell or use within the next day and cut the next order."
		if matchedItem == mitigationCommodity {
			msg += " Move rice to airtight, dry storage to limit moisture and pest damage."
		}
		return domain.TierHigh, msg
	case riskFactor >= 0.3:
		return domain.TierModerate, "Moderate risk: monitor closely and prioritise for sale or discount."
	default:
		return domain.TierLow, "Low risk: stock is stable, keep standard rotation."
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}
