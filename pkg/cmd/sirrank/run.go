package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/sir-influence/pkg/config"
	"github.com/gilchrisn/sir-influence/pkg/metrics"
	"github.com/gilchrisn/sir-influence/pkg/pipeline"
	"github.com/gilchrisn/sir-influence/pkg/results"
)

var (
	runNetworks   string
	runSave       string
	runTrials     int
	runGamma      float64
	runBetas      []float64
	runSeed       uint64
	runWorkers    int
	runMethod     string
	runTrack      bool
	runMetrics    string
	runReportJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sweep every network of a dataset",
	Long: `Sweep every network found under the network path. Each subfolder holds
one network edge list; results go to <save_path>/<network>/<network>_<beta>.json
together with a copy of the network and a manifest.json.

Examples:
  sirrank run -c config.yaml
  sirrank run --networks ./networks --save ./results --trials 500 --betas 0.5,1,1.5`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runNetworks, "networks", "", "Dataset root or single network file")
	runCmd.Flags().StringVar(&runSave, "save", "", "Directory results are written to")
	runCmd.Flags().IntVarP(&runTrials, "trials", "t", 0, "Trials per seed node")
	runCmd.Flags().Float64Var(&runGamma, "gamma", 0, "Recovery probability per step")
	runCmd.Flags().Float64SliceVar(&runBetas, "betas", nil, "Infection rate multipliers relative to the threshold")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Run-level random seed")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "Trial workers per seed node")
	runCmd.Flags().StringVar(&runMethod, "method", "", "Threshold estimator: spectral, hmf or mean-field")
	runCmd.Flags().BoolVar(&runTrack, "track", false, "Append per-node progress events to tracking.file")
	runCmd.Flags().StringVar(&runMetrics, "metrics", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&runReportJSON, "json", false, "Print the run report as JSON")
}

// applyRunFlags copies explicitly set flags over the loaded configuration
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]struct {
		key   string
		value interface{}
	}{
		"networks": {"network.path", runNetworks},
		"save":     {"network.save_path", runSave},
		"trials":   {"simulation.trials", runTrials},
		"gamma":    {"simulation.gamma", runGamma},
		"betas":    {"simulation.betas", runBetas},
		"seed":     {"simulation.seed", runSeed},
		"workers":  {"simulation.workers", runWorkers},
		"method":   {"threshold.method", runMethod},
		"track":    {"tracking.enabled", runTrack},
		"metrics":  {"metrics.textfile", runMetrics},
	}
	for flag, o := range overrides {
		if cmd.Flags().Changed(flag) {
			cfg.Set(o.key, o.value)
		}
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg).WithLogger(logger)

	if cfg.MetricsTextfile() != "" {
		p.WithRecorder(metrics.NewRecorder())
	}

	if cfg.EnableTracking() {
		trackingFile := cfg.TrackingFile()
		if !filepath.IsAbs(trackingFile) {
			trackingFile = filepath.Join(cfg.SavePath(), trackingFile)
		}
		if err := os.MkdirAll(filepath.Dir(trackingFile), 0755); err != nil {
			return err
		}
		tracker, err := results.NewTracker(trackingFile)
		if err != nil {
			return err
		}
		defer tracker.Close()
		p.WithTracker(tracker)
	}

	report, runErr := p.Run(ctx)
	if report != nil && runReportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("Run finished with errors")
	}
	return runErr
}
