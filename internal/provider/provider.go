package provider

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/sirupsen/logrus"
)

// Provider is a connection to a single selected node.
type Provider struct {
	url     string
	chainID *big.Int
	client  *chain.EVMClient
}

// Connect selects a node from urls and caches its chain id. A single URL is
// pinged once; several are benchmarked in parallel and picked by algo.
func Connect(ctx context.Context, urls []string, algo Algorithm, opts ...chain.Option) (*Provider, error) {
	urls = cleanURLs(urls)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no node URL configured", ErrNoHealthyNode)
	}

	endpoints := Benchmark(ctx, urls, opts...)
	for _, e := range endpoints {
		logrus.WithFields(logrus.Fields{
			"node":    e.URL,
			"latency": e.Latency,
			"block":   e.BlockNumber,
			"healthy": e.Healthy,
		}).Debug("node benchmarked")
	}

	winner, err := NewPicker(algo).Pick(endpoints)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, lastError(endpoints))
	}

	client := chain.NewEVMClient(winner.URL, opts...)
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chain id from %s: %w", winner.URL, err)
	}

	logrus.WithFields(logrus.Fields{
		"node":     winner.URL,
		"chain_id": chainID.String(),
	}).Info("connected to node")

	return &Provider{url: winner.URL, chainID: chainID, client: client}, nil
}

// URL returns the selected node URL.
func (p *Provider) URL() string { return p.url }

// ChainID returns a copy of the cached chain id.
func (p *Provider) ChainID() *big.Int { return new(big.Int).Set(p.chainID) }

// Client returns the JSON-RPC client for the selected node.
func (p *Provider) Client() *chain.EVMClient { return p.client }

// BaseAssetID returns the id of the chain's native asset. On EVM chains the
// native coin has no contract, so it is the zero id.
func (p *Provider) BaseAssetID() [32]byte { return [32]byte{} }

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func lastError(endpoints []Endpoint) string {
	for i := len(endpoints) - 1; i >= 0; i-- {
		if endpoints[i].Err != nil {
			return endpoints[i].URL + ": " + endpoints[i].Err.Error()
		}
	}
	return "all nodes stale"
}
