package provider

import (
	"context"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"golang.org/x/sync/errgroup"
)

// Benchmark pings every node in parallel and returns one checked Endpoint per
// URL, in input order. Individual failures are recorded on the endpoint, not
// returned.
func Benchmark(ctx context.Context, urls []string, opts ...chain.Option) []Endpoint {
	endpoints := make([]Endpoint, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(urls) + 1)
	for i, u := range urls {
		g.Go(func() error {
			latency, block, err := chain.NewEVMClient(u, opts...).Ping(gctx)
			endpoints[i] = Endpoint{
				URL:         u,
				Latency:     latency,
				BlockNumber: block,
				Healthy:     err == nil,
				Checked:     true,
				Err:         err,
			}
			return nil
		})
	}
	_ = g.Wait()

	return endpoints
}
