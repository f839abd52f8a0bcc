package domain

import (
	"strings"
	"time"
)

// Known inventory categories. The set is open: unknown categories are scored
// like "other".
const (
	CategoryVegetable = "vegetable"
	CategoryFruit     = "fruit"
	CategoryDairy     = "dairy"
	CategoryMeat      = "meat"
	CategoryGrains    = "grains"
	CategoryNuts      = "nuts"
	CategoryFrozen    = "frozen"
	CategoryOther     = "other"
)

// DateLayout is the wire format of arrival dates.
const DateLayout = "2006-01-02"

// InventoryItem is a stocked item submitted for a spoilage estimate.
type InventoryItem struct {
	Item        string    `json:"item"`
	Category    string    `json:"category"`
	ArrivalDate time.Time `json:"arrival_date"`
	City        string    `json:"city"`
}

// ScoringPath identifies which estimator produced a risk factor.
type ScoringPath string

const (
	PathRuleBased ScoringPath = "rule_based"
	PathLearned   ScoringPath = "learned"
)

// Tier is the recommendation class of an estimate.
type Tier string

const (
	TierSpoiled  Tier = "spoiled"
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

// SpoilageEstimate is the recommendation bundle returned for an item.
type SpoilageEstimate struct {
	Recommendation     string         `json:"recommendation"`
	Tier               Tier           `json:"tier"`
	RiskScore          float64        `json:"risk_score"`
	RiskFactor         float64        `json:"risk_factor"`
	LossPercentage     float64        `json:"loss_percentage"`
	DaysInStock        int            `json:"days_in_stock"`
	AvgShelfLife       int            `json:"avg_shelf_life"`
	AdjustedShelfLife  int            `json:"adjusted_shelf_life"`
	RemainingDays      int            `json:"remaining_days"`
	MatchedItem        string         `json:"matched_item"`
	Path               ScoringPath    `json:"path"`
	Weather            WeatherSummary `json:"weather"`
	WeatherExplanation string         `json:"weather_explanation"`
}

// Normalize lowercases and trims a free-text name for matching and grouping.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
