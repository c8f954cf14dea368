package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/sir-influence/pkg/config"
	"github.com/gilchrisn/sir-influence/pkg/dataset"
	"github.com/gilchrisn/sir-influence/pkg/epidemic"
	"github.com/gilchrisn/sir-influence/pkg/graph"
	"github.com/gilchrisn/sir-influence/pkg/metrics"
	"github.com/gilchrisn/sir-influence/pkg/results"
	"github.com/gilchrisn/sir-influence/pkg/sir"
)

// Manifest statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// NetworkReport summarizes the sweep of one network
type NetworkReport struct {
	Network   string             `json:"network"`
	Source    string             `json:"source"`
	OutputDir string             `json:"output_dir"`
	Threshold epidemic.Threshold `json:"threshold"`
	Schedule  epidemic.Schedule  `json:"schedule"`
	Files     []string           `json:"files"`
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	RuntimeMS int64              `json:"runtime_ms"`
}

// Report summarizes a whole run
type Report struct {
	RunID     string           `json:"run_id"`
	Networks  []*NetworkReport `json:"networks"`
	RuntimeMS int64            `json:"runtime_ms"`
}

// Pipeline runs threshold estimation, beta scheduling, node ranking and
// persistence for every network of a dataset
type Pipeline struct {
	config   *config.Config
	logger   zerolog.Logger
	writer   *results.Writer
	recorder *metrics.Recorder
	tracker  *results.Tracker
	runID    string
}

// New creates a pipeline from configuration
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		config: cfg,
		logger: zerolog.Nop(),
		writer: results.NewWriter(cfg.SavePath()),
		runID:  uuid.NewString(),
	}
}

// WithLogger sets the pipeline logger
func (p *Pipeline) WithLogger(logger zerolog.Logger) *Pipeline {
	p.logger = logger.With().Str("run_id", p.runID).Logger()
	return p
}

// WithRecorder enables metrics collection
func (p *Pipeline) WithRecorder(recorder *metrics.Recorder) *Pipeline {
	p.recorder = recorder
	return p
}

// WithTracker enables per-node progress events
func (p *Pipeline) WithTracker(tracker *results.Tracker) *Pipeline {
	p.tracker = tracker
	return p
}

// RunID returns the identifier stamped on every manifest of this run
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run sweeps every network found under the configured network path. A
// failing network does not stop the others; all failures are returned
// joined, each as a *StageError.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	if err := p.config.Validate(); err != nil {
		return nil, err
	}

	networks, err := dataset.Discover(p.config.NetworkPath())
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Network: p.config.NetworkPath(), Err: err}
	}

	p.logger.Info().
		Int("networks", len(networks)).
		Str("network_path", p.config.NetworkPath()).
		Str("save_path", p.config.SavePath()).
		Msg("Starting run")

	report := &Report{RunID: p.runID}
	var errs []error
	for _, network := range networks {
		nr, err := p.RunNetwork(ctx, network)
		if nr != nil {
			report.Networks = append(report.Networks, nr)
		}
		if err != nil {
			p.logger.Error().Err(err).Str("network", network.Name).Msg("Network sweep failed")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		p.flushMetrics()
	}

	report.RuntimeMS = time.Since(startTime).Milliseconds()
	p.logger.Info().
		Int("networks", len(report.Networks)).
		Int("failed", len(errs)).
		Int64("runtime_ms", report.RuntimeMS).
		Msg("Run completed")

	return report, errors.Join(errs...)
}

// RunNetwork sweeps a single network. Rankings already written for earlier
// betas stay on disk when a later beta fails.
func (p *Pipeline) RunNetwork(ctx context.Context, network dataset.Network) (*NetworkReport, error) {
	startTime := time.Now()
	logger := p.logger.With().Str("network", network.Name).Logger()
	nr := &NetworkReport{Network: network.Name, Source: network.Path, Status: StatusRunning}

	g, err := graph.ReadEdgeList(network.Path)
	if err == nil {
		err = g.Validate()
	}
	if err != nil {
		nr.Status, nr.Reason = StatusFailed, err.Error()
		return nr, &StageError{Stage: StageLoad, Network: network.Name, Err: err}
	}

	components := g.ComponentSizes()
	largest := 0
	if len(components) > 0 {
		largest = components[0]
	}
	logger.Info().
		Int("nodes", g.NumNodes).
		Int("edges", g.NumEdges).
		Int("components", len(components)).
		Int("largest_component", largest).
		Msg("Loaded network")

	dir, err := p.writer.Prepare(network.Path)
	if err != nil {
		nr.Status, nr.Reason = StatusFailed, err.Error()
		return nr, &StageError{Stage: StagePersist, Network: network.Name, Err: err}
	}
	nr.OutputDir = dir.Path

	multipliers, err := p.config.BetaMultipliers()
	if err != nil {
		nr.Status, nr.Reason = StatusFailed, err.Error()
		return nr, &StageError{Stage: StageSchedule, Network: network.Name, Err: err}
	}
	manifest := &results.Manifest{
		RunID:            p.runID,
		Network:          network.Name,
		Source:           network.Path,
		Nodes:            g.NumNodes,
		Edges:            g.NumEdges,
		Components:       len(components),
		LargestComponent: largest,
		Multipliers:      multipliers,
		Gamma:            p.config.Gamma(),
		Trials:           p.config.Trials(),
		Seed:             p.config.Seed(),
		Workers:          p.config.Workers(),
		Status:           StatusRunning,
		StartedAt:        startTime,
	}
	fail := func(stage Stage, beta float64, err error) (*NetworkReport, error) {
		nr.Status, nr.Reason = StatusFailed, err.Error()
		nr.RuntimeMS = time.Since(startTime).Milliseconds()
		manifest.Status, manifest.Error = StatusFailed, err.Error()
		manifest.FinishedAt = time.Now()
		if werr := dir.WriteManifest(manifest); werr != nil {
			logger.Warn().Err(werr).Msg("Failed to write manifest")
		}
		return nr, &StageError{Stage: stage, Network: network.Name, Beta: beta, Err: err}
	}

	if p.config.CopySource() {
		if _, err := dir.CopyNetwork(network.Path); err != nil {
			return fail(StagePersist, 0, err)
		}
	}

	method, err := epidemic.ParseMethod(p.config.ThresholdMethod())
	if err != nil {
		return fail(StageThreshold, 0, err)
	}
	manifest.ThresholdMethod = method

	threshold, err := epidemic.Estimate(g, method)
	if err != nil {
		return fail(StageThreshold, 0, err)
	}
	nr.Threshold = threshold
	manifest.Threshold = threshold
	manifest.LeadingEigenvalue = threshold.LeadingEigenvalue()

	schedule, err := epidemic.ScheduleFor(threshold, multipliers)
	if errors.Is(err, epidemic.ErrUndefinedThreshold) {
		logger.Warn().
			Int("nodes", g.NumNodes).
			Int("edges", g.NumEdges).
			Msg("Epidemic threshold undefined, skipping network")
		p.recorder.ObserveSweep(network.Name, StatusSkipped)

		nr.Status, nr.Reason = StatusSkipped, err.Error()
		nr.RuntimeMS = time.Since(startTime).Milliseconds()
		manifest.Status, manifest.Error = StatusSkipped, err.Error()
		manifest.FinishedAt = time.Now()
		if err := dir.WriteManifest(manifest); err != nil {
			return nr, &StageError{Stage: StagePersist, Network: network.Name, Err: err}
		}
		return nr, nil
	}
	if err != nil {
		return fail(StageSchedule, 0, err)
	}

	crit, _ := threshold.Value()
	p.recorder.SetThreshold(network.Name, string(method), crit)
	nr.Schedule = schedule
	manifest.Schedule = schedule

	logger.Info().
		Str("method", string(method)).
		Float64("threshold", crit).
		Floats64("schedule", schedule).
		Msg("Beta schedule ready")

	for _, beta := range schedule {
		betaStart := time.Now()
		params := p.config.Params(beta)

		ranking, err := sir.NewRanker(g, params).
			WithLogger(logger).
			WithLogInterval(p.config.ProgressIntervalNodes()).
			WithProgress(p.progressHook(network.Name, params)).
			Rank(ctx)
		if err != nil {
			p.recorder.ObserveSweep(network.Name, StatusFailed)
			return fail(StageSimulation, beta, err)
		}

		path, err := dir.WriteRanking(beta, ranking)
		if err != nil {
			return fail(StagePersist, beta, err)
		}
		p.recorder.ObserveSweep(network.Name, "ok")

		record := results.BetaRecord{
			Beta:      beta,
			File:      filepath.Base(path),
			RuntimeMS: time.Since(betaStart).Milliseconds(),
		}
		if len(ranking) > 0 {
			record.TopNode, record.TopMean = ranking[0].Node, ranking[0].Mean
		}
		manifest.Betas = append(manifest.Betas, record)
		nr.Files = append(nr.Files, path)

		if err := dir.WriteManifest(manifest); err != nil {
			return fail(StagePersist, beta, err)
		}

		logger.Info().
			Float64("beta", beta).
			Int64("top_node", record.TopNode).
			Float64("top_mean", record.TopMean).
			Int64("runtime_ms", record.RuntimeMS).
			Str("file", path).
			Msg("Ranking saved")
	}

	nr.Status = StatusCompleted
	nr.RuntimeMS = time.Since(startTime).Milliseconds()
	manifest.Status = StatusCompleted
	manifest.FinishedAt = time.Now()
	if err := dir.WriteManifest(manifest); err != nil {
		return nr, &StageError{Stage: StagePersist, Network: network.Name, Err: err}
	}
	return nr, nil
}

func (p *Pipeline) progressHook(network string, params sir.Params) sir.ProgressFunc {
	return func(score sir.NodeScore, done, total int, elapsed time.Duration) {
		p.recorder.ObserveNode(network, params.Trials, elapsed)
		if err := p.tracker.LogNode(network, params.Beta, score.Node, score.Mean, done, total, elapsed); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to record progress")
		}
	}
}

func (p *Pipeline) flushMetrics() {
	if err := p.recorder.WriteTextfile(p.config.MetricsTextfile()); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to write metrics textfile")
	}
}
