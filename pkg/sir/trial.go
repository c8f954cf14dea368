package sir

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/gilchrisn/sir-influence/pkg/graph"
)

var (
	// ErrInvalidBeta is returned for an infection probability outside [0, 1]
	ErrInvalidBeta = errors.New("beta must be in [0, 1]")
	// ErrInvalidGamma is returned for a recovery probability outside (0, 1].
	// With gamma = 0 an infected node never recovers and a trial never ends.
	ErrInvalidGamma = errors.New("gamma must be in (0, 1]")
	// ErrInvalidTrials is returned when fewer than one trial is requested
	ErrInvalidTrials = errors.New("trial count must be at least 1")
	// ErrUnknownNode is returned for a seed index outside the graph
	ErrUnknownNode = errors.New("seed node not in graph")
)

// Compartment of a node during a trial
type Compartment uint8

const (
	Susceptible Compartment = iota
	Infected
	Recovered
)

// ValidateRates checks the infection and recovery probabilities
func ValidateRates(beta, gamma float64) error {
	if !(beta >= 0 && beta <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidBeta, beta)
	}
	if !(gamma > 0 && gamma <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidGamma, gamma)
	}
	return nil
}

// RunTrial simulates one discrete-time SIR epidemic seeded at node index
// seed and returns the number of recovered nodes once no node is infected.
//
// At every step each node infected at the start of the step tries each
// susceptible neighbor with probability beta and then recovers with
// probability gamma. Nodes infected during a step start spreading on the
// next one. Callers must validate the rates first: with gamma = 0 the loop
// does not terminate.
func RunTrial(g *graph.Graph, beta, gamma float64, seed int, rng *rand.Rand) int {
	state := make([]Compartment, g.NumNodes)
	state[seed] = Infected

	infected := []int{seed}
	next := make([]int, 0)
	recovered := 0

	for len(infected) > 0 {
		next = next[:0]

		for _, u := range infected {
			for _, v := range g.Neighbors(u) {
				if state[v] == Susceptible && rng.Float64() < beta {
					state[v] = Infected
					next = append(next, v)
				}
			}

			if rng.Float64() < gamma {
				state[u] = Recovered
				recovered++
			} else {
				next = append(next, u)
			}
		}

		infected, next = next, infected
	}

	return recovered
}
