package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.NTrees)
	assert.Equal(t, 128, cfg.LeafMaxSize)
}

func TestResolveThreshold_FallsBackToNTreesHalfPlusOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NTrees = 8
	cfg.Threshold = 0
	assert.Equal(t, 5, cfg.ResolveThreshold())

	cfg.Threshold = 3
	assert.Equal(t, 3, cfg.ResolveThreshold())
}

func TestValidate_RejectsNonPositiveFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NTrees = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LeafMaxSize = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BStrategy = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadFromReader_OverridesDefaultsAndFillsGaps(t *testing.T) {
	yaml := []byte(`
n_trees: 16
threshold: 4
`)
	cfg, err := LoadFromReader(yaml)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.NTrees)
	assert.Equal(t, 4, cfg.Threshold)
	assert.Equal(t, 128, cfg.LeafMaxSize) // untouched default
	assert.Equal(t, "default", cfg.BStrategy)
}

func TestLoadFromReader_RejectsMalformedYAML(t *testing.T) {
	_, err := LoadFromReader([]byte("n_trees: [this is not an int"))
	assert.Error(t, err)
}
