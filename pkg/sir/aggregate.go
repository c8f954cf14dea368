package sir

import (
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/sir-influence/pkg/graph"
)

// Params holds the configuration of one sweep
type Params struct {
	Beta    float64 `json:"beta"`
	Gamma   float64 `json:"gamma"`
	Trials  int     `json:"trials"`
	Seed    uint64  `json:"seed"`    // run-level seed every trial stream derives from
	Workers int     `json:"workers"` // 0 means runtime.NumCPU()
}

// Validate checks the sweep parameters before any trial is dispatched
func (p Params) Validate() error {
	if err := ValidateRates(p.Beta, p.Gamma); err != nil {
		return err
	}
	if p.Trials < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTrials, p.Trials)
	}
	if p.Workers < 0 {
		return fmt.Errorf("worker count must not be negative: %d", p.Workers)
	}
	return nil
}

// WorkerCount returns the number of workers used for one node
func (p Params) WorkerCount() int {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return min(workers, p.Trials)
}

// SplitTrials divides trials as evenly as possible among workers, the first
// trials%workers workers taking one extra.
func SplitTrials(trials, workers int) []int {
	if workers <= 0 || trials <= 0 {
		return nil
	}
	base, extra := trials/workers, trials%workers
	splits := make([]int, workers)
	for i := range splits {
		splits[i] = base
		if i < extra {
			splits[i]++
		}
	}
	return splits
}

// Aggregator runs the independent trials of one seed node on a worker pool
type Aggregator struct {
	graph  *graph.Graph
	params Params
}

// NewAggregator creates an aggregator for a graph and sweep parameters
func NewAggregator(g *graph.Graph, params Params) *Aggregator {
	return &Aggregator{graph: g, params: params}
}

// Mean returns the mean fraction of the graph recovered over all trials
// seeded at node index seed.
func (a *Aggregator) Mean(seed int) (float64, error) {
	outcomes, err := a.Outcomes(seed)
	if err != nil {
		return 0, err
	}

	n := float64(a.graph.NumNodes)
	fractions := make([]float64, len(outcomes))
	for i, r := range outcomes {
		fractions[i] = float64(r) / n
	}
	return stat.Mean(fractions, nil), nil
}

// Outcomes runs every trial for a seed node and returns the recovered counts
// in trial order. Each worker runs a contiguous block of trial indices and
// every trial draws from its own stream, so the result does not depend on
// the worker count.
func (a *Aggregator) Outcomes(seed int) ([]int, error) {
	if err := a.params.Validate(); err != nil {
		return nil, err
	}
	if seed < 0 || seed >= a.graph.NumNodes {
		return nil, fmt.Errorf("%w: index %d of %d", ErrUnknownNode, seed, a.graph.NumNodes)
	}

	splits := SplitTrials(a.params.Trials, a.params.WorkerCount())
	batches := make([][]int, len(splits))
	nodeID := a.graph.ID(seed)

	var pool errgroup.Group
	start := 0
	for w, count := range splits {
		first := start
		start += count
		pool.Go(func() error {
			out := make([]int, count)
			for k := range out {
				rng := TrialRNG(a.params.Seed, nodeID, first+k)
				out[k] = RunTrial(a.graph, a.params.Beta, a.params.Gamma, seed, rng)
			}
			batches[w] = out
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	outcomes := make([]int, 0, a.params.Trials)
	for _, batch := range batches {
		outcomes = append(outcomes, batch...)
	}
	return outcomes, nil
}

// TrialRNG returns the random stream of one trial, derived from the run seed,
// the seed node identifier and the trial index.
func TrialRNG(runSeed uint64, node int64, trial int) *rand.Rand {
	return rand.New(rand.NewPCG(runSeed^splitmix64(uint64(node)), uint64(trial)))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
