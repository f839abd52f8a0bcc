package service

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/smartinventory/backend/internal/domain"
)

const (
	// DefaultShelfLifeDays is assumed for items the reference table does not know.
	DefaultShelfLifeDays = 7

	// MatchThreshold is the minimum similarity (0-100) accepted as a match.
	MatchThreshold = 60.0
)

// SimilarityScorer rates how alike two lowercase strings are on a 0-100 scale.
// Implementations must be deterministic.
type SimilarityScorer interface {
	Similarity(a, b string) float64
}

// MetricScorer adapts any strutil string metric to SimilarityScorer.
type MetricScorer struct {
	Metric strutil.StringMetric
}

func (s MetricScorer) Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, s.Metric) * 100
}

// NewLevenshteinScorer returns an edit-distance based scorer. This is the default.
func NewLevenshteinScorer() MetricScorer {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = false
	return MetricScorer{Metric: m}
}

// NewJaroWinklerScorer returns a prefix-weighted scorer, friendlier to truncated names.
func NewJaroWinklerScorer() MetricScorer {
	m := metrics.NewJaroWinkler()
	m.CaseSensitive = false
	return MetricScorer{Metric: m}
}

// ShelfLifeResolver maps free-text item names to the reference shelf-life table.
// The table is copied on construction and never changes afterwards.
type ShelfLifeResolver struct {
	keys   []string
	days   map[string]int
	scorer SimilarityScorer
}

// NewShelfLifeResolver builds a resolver over entries, keeping their order for
// tie breaking. A nil scorer selects the Levenshtein scorer.
func NewShelfLifeResolver(entries []domain.ShelfLifeEntry, scorer SimilarityScorer) *ShelfLifeResolver {
	if scorer == nil {
		scorer = NewLevenshteinScorer()
	}
	r := &ShelfLifeResolver{
		keys:   make([]string, 0, len(entries)),
		days:   make(map[string]int, len(entries)),
		scorer: scorer,
	}
	for _, e := range entries {
		key := domain.Normalize(e.Item)
		if _, dup := r.days[key]; dup || key == "" {
			continue
		}
		r.keys = append(r.keys, key)
		r.days[key] = e.Days
	}
	return r
}

// Len returns the number of reference items.
func (r *ShelfLifeResolver) Len() int {
	return len(r.keys)
}

// Resolve returns the closest reference item and its average shelf life. Names
// with no match scoring at least MatchThreshold come back unchanged with
// DefaultShelfLifeDays.
func (r *ShelfLifeResolver) Resolve(name string) (string, int) {
	if len(r.keys) == 0 {
		return name, DefaultShelfLifeDays
	}

	query := domain.Normalize(name)
	bestKey := ""
	bestScore := -1.0
	for _, key := range r.keys {
		score := r.scorer.Similarity(query, key)
		// strict comparison keeps the first key on ties
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}

	if bestScore >= MatchThreshold {
		return bestKey, r.days[bestKey]
	}
	return name, DefaultShelfLifeDays
}
