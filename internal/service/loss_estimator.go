package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartinventory/backend/pkg/utils"
)

// Feature names understood by loss models.
const (
	FeatureCommodity   = "commodity"
	FeatureActivity    = "activity"
	FeatureSupplyStage = "food_supply_stage"
	FeatureStorageDays = "storage_days"
)

// LossFeatures is the model input for a learned loss estimate.
type LossFeatures struct {
	Commodity   string `json:"commodity"`
	Activity    string `json:"activity"`
	SupplyStage string `json:"food_supply_stage"`
	StorageDays int    `json:"storage_days"`
}

func (f LossFeatures) categorical(name string) (string, bool) {
	switch name {
	case FeatureCommodity:
		return f.Commodity, true
	case FeatureActivity:
		return f.Activity, true
	case FeatureSupplyStage:
		return f.SupplyStage, true
	}
	return "", false
}

// ModelInfo describes a loaded loss model.
type ModelInfo struct {
	Model     string   `json:"model"`
	Version   string   `json:"version,omitempty"`
	Features  []string `json:"features"`
	Trees     int      `json:"trees,omitempty"`
	Source    string   `json:"source"`
	Available bool     `json:"available"`
}

// LossEstimator predicts a loss percentage in [0,100].
type LossEstimator interface {
	Predict(ctx context.Context, features LossFeatures) (float64, error)
	Info() ModelInfo
}

// TreeNode is a node of a regression tree. Leaf nodes carry Value; split nodes
// send the sample Left when a categorical feature equals Equals (case-insensitive)
// or a numeric feature is <= Threshold.
type TreeNode struct {
	Feature   string   `yaml:"feature,omitempty"`
	Equals    string   `yaml:"equals,omitempty"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	Left      int      `yaml:"left,omitempty"`
	Right     int      `yaml:"right,omitempty"`
	Value     *float64 `yaml:"value,omitempty"`
}

// RegressionTree is a flat list of nodes rooted at index 0.
type RegressionTree struct {
	Nodes []TreeNode `yaml:"nodes"`
}

// TreeEnsemble is a gradient-boosted regressor:
// base_score + learning_rate * sum(tree(x)), clamped to [0,100].
type TreeEnsemble struct {
	Model        string           `yaml:"model"`
	Version      string           `yaml:"version"`
	BaseScore    float64          `yaml:"base_score"`
	LearningRate float64          `yaml:"learning_rate"`
	Features     []string         `yaml:"features"`
	Trees        []RegressionTree `yaml:"trees"`

	source string
}

// LoadTreeEnsemble reads and validates a model artifact from path.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loss_model: failed to read artifact: %w", err)
	}
	m, err := ParseTreeEnsemble(raw)
	if err != nil {
		return nil, err
	}
	m.source = path
	return m, nil
}

// ParseTreeEnsemble decodes a YAML model artifact.
func ParseTreeEnsemble(raw []byte) (*TreeEnsemble, error) {
	var m TreeEnsemble
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("loss_model: failed to decode artifact: %w", err)
	}
	if m.Model == "" {
		m.Model = "GradientBoostingRegressor"
	}
	if m.LearningRate == 0 {
		m.LearningRate = 1
	}
	if len(m.Features) == 0 {
		m.Features = []string{FeatureCommodity, FeatureActivity, FeatureSupplyStage, FeatureStorageDays}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.source = "inline"
	return &m, nil
}

func (m *TreeEnsemble) validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("loss_model: artifact has no trees")
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("loss_model: tree %d is empty", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Value != nil {
				continue
			}
			if n.Feature == "" {
				return fmt.Errorf("loss_model: tree %d node %d has neither value nor feature", ti, ni)
			}
			if n.Feature == FeatureStorageDays {
				if n.Threshold == nil {
					return fmt.Errorf("loss_model: tree %d node %d splits storage_days without threshold", ti, ni)
				}
			} else if _, ok := (LossFeatures{}).categorical(n.Feature); !ok || n.Threshold != nil {
				return fmt.Errorf("loss_model: tree %d node %d has unsupported split on %q", ti, ni, n.Feature)
			}
			// children must point forward, which rules out cycles
			if n.Left <= ni || n.Right <= ni || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("loss_model: tree %d node %d has invalid children %d/%d", ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}

// Predict evaluates the ensemble.
func (m *TreeEnsemble) Predict(ctx context.Context, f LossFeatures) (float64, error) {
	sum := 0.0
	for _, tree := range m.Trees {
		sum += tree.eval(f)
	}
	return utils.Clamp(m.BaseScore+m.LearningRate*sum, 0, 100), nil
}

// Info describes the artifact.
func (m *TreeEnsemble) Info() ModelInfo {
	return ModelInfo{
		Model:     m.Model,
		Version:   m.Version,
		Features:  m.Features,
		Trees:     len(m.Trees),
		Source:    m.source,
		Available: true,
	}
}

func (t RegressionTree) eval(f LossFeatures) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Value != nil {
			return *n.Value
		}
		if n.goLeft(f) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (n TreeNode) goLeft(f LossFeatures) bool {
	if n.Threshold != nil {
		return float64(f.StorageDays) <= *n.Threshold
	}
	v, _ := f.categorical(n.Feature)
	return strings.EqualFold(strings.TrimSpace(v), n.Equals)
}
