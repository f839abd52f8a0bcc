package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTreeEnsemble_ShippedArtifact(t *testing.T) {
	m, err := LoadTreeEnsemble("../../data/spoilage_model.yaml")
	require.NoError(t, err)

	info := m.Info()
	assert.Equal(t, "GradientBoostingRegressor", info.Model)
	assert.Equal(t, 4, info.Trees)
	assert.True(t, info.Available)

	got, err := m.Predict(context.Background(), LossFeatures{Commodity: "rice", Activity: "Storage", SupplyStage: "Storage", StorageDays: 10})
	require.NoError(t, err)
	assert.InDelta(t, 5.75, got, 1e-9)

	got, err = m.Predict(context.Background(), LossFeatures{Commodity: "Maize", Activity: "storage", SupplyStage: "storage", StorageDays: 150})
	require.NoError(t, err)
	assert.InDelta(t, 9.6, got, 1e-9)
}

func TestTreeEnsemble_ClampsOutput(t *testing.T) {
	high, err := ParseTreeEnsemble([]byte(`
base_score: 150
trees:
  - nodes:
      - {value: 0}
`))
	require.NoError(t, err)
	got, _ := high.Predict(context.Background(), LossFeatures{})
	assert.Equal(t, 100.0, got)

	low, err := ParseTreeEnsemble([]byte(`
base_score: 1
learning_rate: 1
trees:
  - nodes:
      - {value: -5}
`))
	require.NoError(t, err)
	got, _ = low.Predict(context.Background(), LossFeatures{})
	assert.Equal(t, 0.0, got)
}

func TestParseTreeEnsemble_Defaults(t *testing.T) {
	m, err := ParseTreeEnsemble([]byte("trees:\n  - nodes:\n      - {value: 2}\n"))
	require.NoError(t, err)
	assert.Equal(t, "GradientBoostingRegressor", m.Model)
	assert.Len(t, m.Features, 4)

	got, _ := m.Predict(context.Background(), LossFeatures{})
	assert.Equal(t, 2.0, got)
}

func TestParseTreeEnsemble_Invalid(t *testing.T) {
	tests := map[string]string{
		"no trees":     "base_score: 1\n",
		"empty tree":   "trees:\n  - nodes: []\n",
		"backward":     "trees:\n  - nodes:\n      - {feature: commodity, equals: rice, left: 0, right: 1}\n      - {value: 1}\n",
		"out of range": "trees:\n  - nodes:\n      - {feature: commodity, equals: rice, left: 1, right: 5}\n      - {value: 1}\n",
		"no threshold": "trees:\n  - nodes:\n      - {feature: storage_days, left: 1, right: 2}\n      - {value: 1}\n      - {value: 2}\n",
		"unknown":      "trees:\n  - nodes:\n      - {feature: colour, equals: red, left: 1, right: 2}\n      - {value: 1}\n      - {value: 2}\n",
		"bad yaml":     "trees: [",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTreeEnsemble([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadTreeEnsemble_MissingFile(t *testing.T) {
	_, err := LoadTreeEnsemble("does-not-exist.yaml")
	assert.Error(t, err)
}
