package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smartinventory/backend/internal/domain"
	"github.com/smartinventory/backend/pkg/utils"
)

// MLBridge is a LossEstimator backed by an external model-serving process.
type MLBridge struct {
	serviceURL string
	httpClient *http.Client
}

type mlPredictResponse struct {
	LossPercentage float64 `json:"loss_percentage"`
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string, timeout time.Duration) *MLBridge {
	return &MLBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict calls the model service. Transport failures surface as
// domain.ErrModelUnavailable.
func (b *MLBridge) Predict(ctx context.Context, features LossFeatures) (float64, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: %w: %v", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ml_bridge: %w: status %d", domain.ErrModelUnavailable, resp.StatusCode)
	}

	var prediction mlPredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to decode response: %w", err)
	}

	return utils.Clamp(prediction.LossPercentage, 0, 100), nil
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ml_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}

// Info describes the remote model
func (b *MLBridge) Info() ModelInfo {
	return ModelInfo{
		Model:     "remote",
		Features:  []string{FeatureCommodity, FeatureActivity, FeatureSupplyStage, FeatureStorageDays},
		Source:    b.serviceURL,
		Available: true,
	}
}
