package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/gilchrisn/sir-influence/pkg/epidemic"
	"github.com/gilchrisn/sir-influence/pkg/sir"
)

// ErrInvalidMultiplier is returned when a beta multiplier is not a positive number
var ErrInvalidMultiplier = errors.New("invalid beta multiplier")

// Config manages sweep configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Input and output locations
	v.SetDefault("network.path", "./networks")
	v.SetDefault("network.save_path", "./results")
	v.SetDefault("network.copy_source", true)

	// Simulation parameters
	v.SetDefault("simulation.trials", 1000)
	v.SetDefault("simulation.betas", []float64{0.5, 1.0, 1.5})
	v.SetDefault("simulation.gamma", 1.0)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.workers", runtime.NumCPU())

	v.SetDefault("threshold.method", string(epidemic.MethodSpectral))

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.progress_interval_nodes", 100)

	// Outputs besides the rankings
	v.SetDefault("tracking.enabled", false)
	v.SetDefault("tracking.file", "progress.jsonl")
	v.SetDefault("metrics.textfile", "")

	v.SetEnvPrefix("SIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Getters for input and output locations
func (c *Config) NetworkPath() string { return c.v.GetString("network.path") }
func (c *Config) SavePath() string { return c.v.GetString("network.save_path") }
func (c *Config) CopySource() bool { return c.v.GetBool("network.copy_source") }

// Getters for simulation parameters
func (c *Config) Trials() int { return c.v.GetInt("simulation.trials") }
func (c *Config) Gamma() float64 { return c.v.GetFloat64("simulation.gamma") }
func (c *Config) Seed() uint64 { return c.v.GetUint64("simulation.seed") }
func (c *Config) Workers() int { return c.v.GetInt("simulation.workers") }

func (c *Config) ThresholdMethod() string { return c.v.GetString("threshold.method") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) ProgressIntervalNodes() int { return c.v.GetInt("logging.progress_interval_nodes") }

func (c *Config) EnableTracking() bool { return c.v.GetBool("tracking.enabled") }
func (c *Config) TrackingFile() string { return c.v.GetString("tracking.file") }
func (c *Config) MetricsTextfile() string { return c.v.GetString("metrics.textfile") }

// BetaMultipliers returns simulation.betas. Any entry that is not a positive
// finite number fails the whole list.
func (c *Config) BetaMultipliers() ([]float64, error) {
	vals, err := c.floatSlice("simulation.betas")
	if err != nil {
		return nil, fmt.Errorf("simulation.betas: %w", err)
	}
	for i, m := range vals {
		if !(m > 0) || math.IsInf(m, 1) {
			return nil, fmt.Errorf("simulation.betas[%d]=%v: %w", i, m, ErrInvalidMultiplier)
		}
	}
	return vals, nil
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Params returns the sweep parameters for one beta
func (c *Config) Params(beta float64) sir.Params {
	return sir.Params{
		Beta:    beta,
		Gamma:   c.Gamma(),
		Trials:  c.Trials(),
		Seed:    c.Seed(),
		Workers: c.Workers(),
	}
}

// Validate checks the values the sweep depends on before any work starts
func (c *Config) Validate() error {
	if c.NetworkPath() == "" {
		return fmt.Errorf("network.path is required")
	}
	if c.SavePath() == "" {
		return fmt.Errorf("network.save_path is required")
	}
	multipliers, err := c.BetaMultipliers()
	if err != nil {
		return err
	}
	if len(multipliers) == 0 {
		return epidemic.ErrNoMultipliers
	}
	if _, err := epidemic.ParseMethod(c.ThresholdMethod()); err != nil {
		return err
	}
	// Beta is validated per schedule entry; check the rest with a neutral value
	if err := c.Params(0).Validate(); err != nil {
		return err
	}
	return nil
}

// floatSlice reads a list of numbers written either as a YAML list or as a
// comma separated string (environment variables).
func (c *Config) floatSlice(key string) ([]float64, error) {
	raw := c.v.Get(key)
	if raw == nil {
		return nil, nil
	}

	var items []interface{}
	switch vals := raw.(type) {
	case string:
		for _, part := range strings.Split(vals, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	case []float64:
		return vals, nil
	case []string:
		for _, val := range vals {
			items = append(items, strings.TrimSpace(val))
		}
	case []interface{}:
		items = vals
	default:
		return nil, fmt.Errorf("%w: unsupported list type %T", ErrInvalidMultiplier, raw)
	}

	out := make([]float64, 0, len(items))
	for i, item := range items {
		if _, ok := item.(bool); ok {
			return nil, fmt.Errorf("entry %d (%v): %w", i, item, ErrInvalidMultiplier)
		}
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%v): %w", i, item, ErrInvalidMultiplier)
		}
		out = append(out, f)
	}
	return out, nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "sirrank").Logger()
}
