package service

import (
	"fmt"
	"sort"

	"github.com/smartinventory/backend/internal/dataset"
	"github.com/smartinventory/backend/internal/domain"
)

// DefaultTopWasteItems is how many commodities the last transformation step lists.
const DefaultTopWasteItems = 5

// WasteService answers global food loss questions from the wastage dataset.
type WasteService struct {
	data      *dataset.Wastage
	byLoss    []domain.CommodityLoss
	available bool
}

// NewWasteService precomputes mean loss per commodity. A nil dataset makes every
// query return domain.ErrDatasetUnavailable.
func NewWasteService(data *dataset.Wastage) *WasteService {
	if data == nil {
		return &WasteService{}
	}
	return &WasteService{
		data:      data,
		byLoss:    averageByCommodity(data.Records),
		available: true,
	}
}

// GlobalWaste returns mean loss per commodity, highest first.
func (s *WasteService) GlobalWaste() ([]domain.CommodityLoss, error) {
	if !s.available {
		return nil, domain.ErrDatasetUnavailable
	}
	out := make([]domain.CommodityLoss, len(s.byLoss))
	copy(out, s.byLoss)
	return out, nil
}

// Steps walks through the dataset transformation. The last step is always
// "top_waste_items" with up to limit commodities.
func (s *WasteService) Steps(limit int) ([]domain.WasteStep, error) {
	if !s.available {
		return nil, domain.ErrDatasetUnavailable
	}
	if limit <= 0 {
		limit = DefaultTopWasteItems
	}
	top := s.byLoss
	if len(top) > limit {
		top = top[:limit]
	}
	topCopy := make([]domain.CommodityLoss, len(top))
	copy(topCopy, top)

	return []domain.WasteStep{
		{
			Step:        "load_data",
			Description: fmt.Sprintf("Loaded %d rows from the FAO food loss dataset", s.data.RawRows),
			Rows:        s.data.RawRows,
		},
		{
			Step:        "clean_data",
			Description: fmt.Sprintf("Dropped rows without commodity or loss percentage, %d remain", len(s.data.Records)),
			Rows:        len(s.data.Records),
		},
		{
			Step:        "aggregate",
			Description: fmt.Sprintf("Averaged loss percentage across %d commodities", len(s.byLoss)),
			Rows:        len(s.byLoss),
		},
		{
			Step:        "top_waste_items",
			Description: fmt.Sprintf("Top %d commodities by average loss", len(topCopy)),
			Top:         topCopy,
		},
	}, nil
}

func averageByCommodity(records []domain.WastageRecord) []domain.CommodityLoss {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		sums[r.Commodity] += r.LossPercentage
		counts[r.Commodity]++
	}

	out := make([]domain.CommodityLoss, 0, len(sums))
	for c, sum := range sums {
		out = append(out, domain.CommodityLoss{Commodity: c, LossPercentage: sum / float64(counts[c])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LossPercentage != out[j].LossPercentage {
			return out[i].LossPercentage > out[j].LossPercentage
		}
		return out[i].Commodity < out[j].Commodity
	})
	return out
}
