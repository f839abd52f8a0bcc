package domain

import (
	"context"
	"time"
)

// HistoryRecord is one past spoilage estimate. Records are never mutated.
type HistoryRecord struct {
	ID             string    `json:"id"`
	Item           string    `json:"item"`
	City           string    `json:"city"`
	LossPercentage float64   `json:"loss_percentage"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewHistoryRecord builds a record with normalized item and city.
func NewHistoryRecord(item, city string, loss float64) HistoryRecord {
	return HistoryRecord{
		Item:           Normalize(item),
		City:           Normalize(city),
		LossPercentage: loss,
	}
}

// ItemLoss is the mean recorded loss of an item within a city.
type ItemLoss struct {
	Item           string  `json:"item"`
	LossPercentage float64 `json:"loss_percentage"`
	Count          int     `json:"count"`
}

// HistoryRepository defines the interface for spoilage history persistence.
// It is the only component allowed to add or remove history records.
type HistoryRepository interface {
	// Append stores a record
	Append(ctx context.Context, rec HistoryRecord) error

	// QueryByCity groups the city's records by item, ordered by descending mean loss
	QueryByCity(ctx context.Context, city string) ([]ItemLoss, error)

	// DeleteByCityAndItem removes every record for the pair and returns how many went
	DeleteByCityAndItem(ctx context.Context, city, item string) (int, error)

	// Health checks backend connectivity
	Health(ctx context.Context) error
}
