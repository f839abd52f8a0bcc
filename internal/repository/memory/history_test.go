package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartinventory/backend/internal/domain"
)

func TestHistoryStore_QueryByCityGroupsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	require.NoError(t, s.Append(ctx, domain.HistoryRecord{Item: "milk", City: "Singapore", LossPercentage: 20}))
	require.NoError(t, s.Append(ctx, domain.HistoryRecord{Item: "milk", City: "singapore", LossPercentage: 40}))

	got, err := s.QueryByCity(ctx, "SINGAPORE")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "milk", got[0].Item)
	assert.InDelta(t, 30.0, got[0].LossPercentage, 1e-9)
	assert.Equal(t, 2, got[0].Count)
}

func TestHistoryStore_QueryByCityOrdersByMeanLoss(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	records := []domain.HistoryRecord{
		{Item: "bread", City: "oslo", LossPercentage: 2},
		{Item: "milk", City: "oslo", LossPercentage: 9},
		{Item: "rice", City: "oslo", LossPercentage: 5},
		{Item: "bread", City: "oslo", LossPercentage: 4},
		{Item: "milk", City: "lima", LossPercentage: 90},
	}
	for _, r := range records {
		require.NoError(t, s.Append(ctx, r))
	}

	got, err := s.QueryByCity(ctx, "Oslo")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"milk", "rice", "bread"}, []string{got[0].Item, got[1].Item, got[2].Item})
	assert.InDelta(t, 3.0, got[2].LossPercentage, 1e-9)
}

func TestHistoryStore_QueryByCityUnknown(t *testing.T) {
	s := NewHistoryStore()
	got, err := s.QueryByCity(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStore_DeleteByCityAndItem(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	require.NoError(t, s.Append(ctx, domain.HistoryRecord{Item: "milk", City: "Singapore", LossPercentage: 20}))
	require.NoError(t, s.Append(ctx, domain.HistoryRecord{Item: "Milk", City: "singapore", LossPercentage: 40}))
	require.NoError(t, s.Append(ctx, domain.HistoryRecord{Item: "eggs", City: "singapore", LossPercentage: 10}))

	n, err := s.DeleteByCityAndItem(ctx, "singapore", "milk")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Len())

	n, err = s.DeleteByCityAndItem(ctx, "singapore", "milk")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHistoryStore_ConcurrentAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, domain.HistoryRecord{Item: fmt.Sprintf("item-%d", i%5), City: "tokyo", LossPercentage: float64(i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.QueryByCity(ctx, "tokyo")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	got, err := s.QueryByCity(ctx, "tokyo")
	require.NoError(t, err)
	total := 0
	for _, g := range got {
		total += g.Count
	}
	assert.Equal(t, 50, total)
}
