package service

import (
	"strings"
	"time"
)

// MaxRuleScore is the largest value ScoreRisk can return. It is above 10 on
// purpose: callers normalise with min(score/10, 1).
const MaxRuleScore = 12

// ScoreRisk is the deterministic spoilage score built from additive weather,
// season and category contributions. The result is not clamped.
func ScoreRisk(avgTemp, humidity, rainChance float64, month time.Month, category string) int {
	score := 0

	switch {
	case avgTemp > 30:
		score += 3
	case avgTemp > 25:
		score += 1
	}

	switch {
	case humidity > 75:
		score += 3
	case humidity > 60:
		score += 1
	}

	switch {
	case rainChance > 70:
		score += 2
	case rainChance > 40:
		score += 1
	}

	switch month {
	case time.July, time.August, time.September:
		score += 2
	case time.January, time.February, time.March, time.October, time.November, time.December:
		score += 1
	}

	switch strings.ToLower(category) {
	case "vegetable", "dairy", "fruit":
		score += 2
	}

	return score
}
