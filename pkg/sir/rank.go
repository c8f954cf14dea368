package sir

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/sir-influence/pkg/graph"
)

// NodeScore is the expected outbreak fraction of one seed node
type NodeScore struct {
	Node int64   `json:"node"`
	Mean float64 `json:"mean"`
}

// Ranking lists node scores by descending mean
type Ranking []NodeScore

// ProgressFunc is called after each node's trials complete
type ProgressFunc func(score NodeScore, done, total int, elapsed time.Duration)

// Ranker sweeps every node of a graph for one set of sweep parameters
type Ranker struct {
	graph         *graph.Graph
	params        Params
	logger        zerolog.Logger
	progress      ProgressFunc
	logEveryNodes int
}

// NewRanker creates a ranker with logging disabled
func NewRanker(g *graph.Graph, params Params) *Ranker {
	return &Ranker{
		graph:         g,
		params:        params,
		logger:        zerolog.Nop(),
		logEveryNodes: 100,
	}
}

// WithLogger sets the logger used for progress messages
func (r *Ranker) WithLogger(logger zerolog.Logger) *Ranker {
	r.logger = logger
	return r
}

// WithProgress registers a callback invoked after every node
func (r *Ranker) WithProgress(fn ProgressFunc) *Ranker {
	r.progress = fn
	return r
}

// WithLogInterval sets how many nodes pass between progress log lines
func (r *Ranker) WithLogInterval(nodes int) *Ranker {
	if nodes > 0 {
		r.logEveryNodes = nodes
	}
	return r
}

// Rank computes the mean outbreak fraction of every node and returns them
// sorted by descending mean. Ties keep graph node order. Cancellation is
// checked between nodes; the trials of a node always run to completion.
func (r *Ranker) Rank(ctx context.Context) (Ranking, error) {
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	total := r.graph.NumNodes
	aggregator := NewAggregator(r.graph, r.params)

	r.logger.Info().
		Int("nodes", total).
		Float64("beta", r.params.Beta).
		Float64("gamma", r.params.Gamma).
		Int("trials", r.params.Trials).
		Int("workers", r.params.WorkerCount()).
		Msg("Starting node sweep")

	ranking := make(Ranking, 0, total)
	for node := 0; node < total; node++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		nodeStart := time.Now()
		mean, err := aggregator.Mean(node)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", r.graph.ID(node), err)
		}

		score := NodeScore{Node: r.graph.ID(node), Mean: mean}
		ranking = append(ranking, score)

		if r.progress != nil {
			r.progress(score, node+1, total, time.Since(nodeStart))
		}
		if (node+1)%r.logEveryNodes == 0 {
			r.logger.Info().
				Int("done", node+1).
				Int("total", total).
				Dur("elapsed", time.Since(startTime)).
				Msg("Node sweep progress")
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Mean > ranking[j].Mean
	})

	r.logger.Info().
		Int("nodes", total).
		Int64("runtime_ms", time.Since(startTime).Milliseconds()).
		Msg("Node sweep completed")

	return ranking, nil
}

// Rank is a shorthand for NewRanker(g, params).Rank(ctx)
func Rank(ctx context.Context, g *graph.Graph, params Params) (Ranking, error) {
	return NewRanker(g, params).Rank(ctx)
}

// Means returns the scores as a node -> mean map
func (r Ranking) Means() map[int64]float64 {
	means := make(map[int64]float64, len(r))
	for _, s := range r {
		means[s.Node] = s.Mean
	}
	return means
}
