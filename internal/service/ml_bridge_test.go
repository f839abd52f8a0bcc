package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartinventory/backend/internal/domain"
)

func TestMLBridge_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			var f LossFeatures
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f))
			assert.Equal(t, "rice", f.Commodity)
			assert.Equal(t, 12, f.StorageDays)
			w.Write([]byte(`{"loss_percentage": 42.5}`))
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	b := NewMLBridge(srv.URL, time.Second)
	got, err := b.Predict(context.Background(), LossFeatures{Commodity: "rice", Activity: "Storage", SupplyStage: "Storage", StorageDays: 12})
	require.NoError(t, err)
	assert.Equal(t, 42.5, got)
	assert.NoError(t, b.Health(context.Background()))
	assert.Equal(t, srv.URL, b.Info().Source)
}

func TestMLBridge_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewMLBridge(srv.URL, time.Second).Predict(context.Background(), LossFeatures{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	_, err = NewMLBridge("http://127.0.0.1:1", 200*time.Millisecond).Predict(context.Background(), LossFeatures{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Error(t, NewMLBridge("http://127.0.0.1:1", 200*time.Millisecond).Health(context.Background()))
}
