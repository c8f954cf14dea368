package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/sir-influence/pkg/epidemic"
	"github.com/gilchrisn/sir-influence/pkg/sir"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1000, cfg.Trials())
	multipliers, err := cfg.BetaMultipliers()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0, 1.5}, multipliers)
	assert.Equal(t, 1.0, cfg.Gamma())
	assert.Equal(t, uint64(42), cfg.Seed())
	assert.Equal(t, "spectral", cfg.ThresholdMethod())
	assert.False(t, cfg.EnableTracking())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
network:
  path: /data/networks
  save_path: /data/results
simulation:
  trials: 200
  betas: [0.25, 0.5, 1, 2, 3]
  gamma: 0.5
  seed: 7
  workers: 2
threshold:
  method: hmf
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "/data/networks", cfg.NetworkPath())
	assert.Equal(t, "/data/results", cfg.SavePath())
	assert.Equal(t, 200, cfg.Trials())
	multipliers, err := cfg.BetaMultipliers()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 1, 2, 3}, multipliers)
	assert.Equal(t, "hmf", cfg.ThresholdMethod())

	assert.Equal(t, sir.Params{Beta: 0.3, Gamma: 0.5, Trials: 200, Seed: 7, Workers: 2}, cfg.Params(0.3))
	assert.Equal(t, zerolog.DebugLevel, cfg.CreateLogger().GetLevel())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SIR_SIMULATION_BETAS", "0.5, 1.0,2")
	t.Setenv("SIR_SIMULATION_TRIALS", "12")

	cfg := NewConfig()
	multipliers, err := cfg.BetaMultipliers()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0, 2}, multipliers)
	assert.Equal(t, 12, cfg.Trials())
}

func TestEnvironmentBadMultiplier(t *testing.T) {
	t.Setenv("SIR_SIMULATION_BETAS", "0.5,1,1.5x")

	cfg := NewConfig()
	_, err := cfg.BetaMultipliers()
	assert.ErrorIs(t, err, ErrInvalidMultiplier)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMultiplier)
}

func TestBadMultipliers(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"NonNumericString", []interface{}{0.5, "fast"}},
		{"Boolean", []interface{}{0.5, true}},
		{"Negative", []interface{}{0.5, -1}},
		{"Zero", []float64{0, 1}},
		{"NotAList", map[string]interface{}{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Set("simulation.betas", tt.value)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidMultiplier)
		})
	}

	cfg := NewConfig()
	cfg.Set("simulation.betas", []interface{}{0.5, "1", 2})
	multipliers, err := cfg.BetaMultipliers()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 2}, multipliers)
}

func TestLoadFromFileBadMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "simulation:\n  betas: [0.5, 1, two]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMultiplier)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		err   error
	}{
		{"ZeroGamma", "simulation.gamma", 0.0, sir.ErrInvalidGamma},
		{"ZeroTrials", "simulation.trials", 0, sir.ErrInvalidTrials},
		{"NoBetas", "simulation.betas", []float64{}, epidemic.ErrNoMultipliers},
		{"BadMethod", "threshold.method", "eigen", epidemic.ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Set(tt.key, tt.value)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}

	cfg := NewConfig()
	cfg.Set("network.save_path", "")
	assert.Error(t, cfg.Validate())
}

func TestInvalidLogLevelFallsBack(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("logging.level", "loud")
	assert.Equal(t, zerolog.InfoLevel, cfg.CreateLogger().GetLevel())
}
