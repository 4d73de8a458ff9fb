package provider

import (
	"errors"
	"time"
)

// ErrNoHealthyNode is returned when no configured node answers.
var ErrNoHealthyNode = errors.New("no healthy node available")

// Algorithm defines how a node is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Endpoint represents a single node with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // meaningful only when Checked == true
	Checked     bool
	Err         error
}

// Picker selects a node according to the configured algorithm. It keeps no
// state between calls; every Pick scores the endpoints it is given.
type Picker struct {
	algo Algorithm
}

// NewPicker creates a new Picker. Unknown algorithms fall back to failover.
func NewPicker(algo Algorithm) *Picker {
	if algo != AlgorithmFastest {
		algo = AlgorithmFailover
	}
	return &Picker{algo: algo}
}

// Algorithm reports the effective selection algorithm.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Pick selects an endpoint from the provided list.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyNode
	}
	if p.algo == AlgorithmFastest {
		return pickFastest(endpoints)
	}
	return pickFailover(endpoints)
}

// pickFastest selects the best-scoring healthy endpoint that is not lagging.
func pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	var bestBlock uint64
	for _, e := range endpoints {
		if (!e.Checked || e.Healthy) && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var winner *Endpoint
	var bestScore float64
	for _, e := range healthyEndpoints(endpoints) {
		if bestBlock > 0 && bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		s := score(e, bestBlock)
		if winner == nil || s > bestScore {
			winner = e
			bestScore = s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyNode
	}
	return winner, nil
}

// pickFailover takes endpoints in configured order, skipping unhealthy ones.
func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		e := &endpoints[i]
		if e.Checked && !e.Healthy {
			continue
		}
		return e, nil
	}
	return nil, ErrNoHealthyNode
}

// --- scoring ---

func score(e *Endpoint, bestBlock uint64) float64 {
	var s float64

	// Latency score: higher = faster.
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}

	// Loses 1 point per block behind the best.
	if bestBlock > 0 {
		s += float64(10 - int64(bestBlock-e.BlockNumber))
	}
	return s
}

// healthyEndpoints returns endpoints eligible for selection. Endpoints that
// were never checked are always candidates.
func healthyEndpoints(endpoints []Endpoint) []*Endpoint {
	var out []*Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
