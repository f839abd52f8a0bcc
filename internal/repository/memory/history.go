package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartinventory/backend/internal/domain"
)

// HistoryStore implements domain.HistoryRepository with a process-local,
// append-only slice. Nothing survives a restart.
type HistoryStore struct {
	mu      sync.RWMutex
	records []domain.HistoryRecord
}

// NewHistoryStore creates an empty in-memory history store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append stores a record with normalized item and city
func (s *HistoryStore) Append(ctx context.Context, rec domain.HistoryRecord) error {
	rec.Item = domain.Normalize(rec.Item)
	rec.City = domain.Normalize(rec.City)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

// QueryByCity averages loss per item for a city, highest mean first. Items with
// equal means keep the order in which they were first recorded.
func (s *HistoryStore) QueryByCity(ctx context.Context, city string) ([]domain.ItemLoss, error) {
	city = domain.Normalize(city)

	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	sums := make([]float64, 0)
	out := make([]domain.ItemLoss, 0)
	for _, rec := range s.records {
		if rec.City != city {
			continue
		}
		i, ok := index[rec.Item]
		if !ok {
			i = len(out)
			index[rec.Item] = i
			out = append(out, domain.ItemLoss{Item: rec.Item})
			sums = append(sums, 0)
		}
		sums[i] += rec.LossPercentage
		out[i].Count++
	}

	for i := range out {
		out[i].LossPercentage = sums[i] / float64(out[i].Count)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LossPercentage > out[j].LossPercentage
	})

	return out, nil
}

// DeleteByCityAndItem removes all records for the pair
func (s *HistoryStore) DeleteByCityAndItem(ctx context.Context, city, item string) (int, error) {
	city = domain.Normalize(city)
	item = domain.Normalize(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	deleted := 0
	for _, rec := range s.records {
		if rec.City == city && rec.Item == item {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Len returns the number of stored records
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Health always returns nil for the in-memory store
func (s *HistoryStore) Health(ctx context.Context) error {
	return nil
}

var _ domain.HistoryRepository = (*HistoryStore)(nil)
