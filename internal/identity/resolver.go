package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
)

// ReasonCached marks a result served from the cache store rather than matched.
const ReasonCached Reason = "cached"

// Searcher returns registry candidates for a query.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Candidate, error)
}

// Resolver turns a query into a registry identity. A miss is a Result with
// an empty ID, not an error; errors mean the registry could not be asked.
type Resolver interface {
	Resolve(ctx context.Context, q Query) (Result, error)
}

// Registry resolves by searching and then matching client-side.
type Registry struct {
	searcher Searcher
	opts     MatchOptions
	logger   *zap.Logger
}

// NewRegistry builds a Registry resolver.
func NewRegistry(searcher Searcher, opts MatchOptions, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Aliases == nil {
		opts.Aliases = Aliases(nil)
	}
	return &Registry{searcher: searcher, opts: opts, logger: logger}
}

// Resolve searches for q and applies Match to the hits.
func (r *Registry) Resolve(ctx context.Context, q Query) (Result, error) {
	candidates, err := r.searcher.Search(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %q: %w", q.Name(), err)
	}
	res := Match(q, candidates, r.opts)
	metrics.ObserveResolution(string(res.Reason))
	if !res.Found() {
		r.logger.Info("no registry match",
			zap.String("athlete", q.Name()),
			zap.Int("candidates", len(candidates)),
		)
	} else {
		r.logger.Debug("resolved",
			zap.String("athlete", q.Name()),
			zap.String("id", res.ID),
			zap.String("reason", string(res.Reason)),
		)
	}
	return res, nil
}

// Cached fronts a Resolver with the per-meet identity table of the cache store.
// Misses are cached as well.
type Cached struct {
	next  Resolver
	store *cache.Store
}

// NewCached wraps next with store.
func NewCached(next Resolver, store *cache.Store) *Cached {
	return &Cached{next: next, store: store}
}

// Lookup returns the cached result for the "first last" name.
func (c *Cached) Lookup(meet entries.Meet, name string) (Result, bool) {
	id, ok := c.store.Identity(meet, name)
	if !ok {
		return Result{}, false
	}
	res := Result{ID: id.ID, Reason: ReasonCached}
	if id.Nat != nil {
		res.Country = *id.Nat
	}
	return res, true
}

// Remember stores res under name.
func (c *Cached) Remember(meet entries.Meet, name string, res Result) {
	c.store.SetIdentity(meet, name, cache.Identity{ID: res.ID, Nat: entries.Str(res.Country)})
}

// Resolve consults the cache first and asks next only for unknown names.
func (c *Cached) Resolve(ctx context.Context, meet entries.Meet, q Query) (Result, error) {
	if res, ok := c.Lookup(meet, q.Name()); ok {
		return res, nil
	}
	res, err := c.next.Resolve(ctx, q)
	if err != nil {
		return Result{}, err
	}
	c.Remember(meet, q.Name(), res)
	return res, nil
}

// Uncached returns the wrapped resolver, for callers that batch lookups and
// apply Remember themselves.
func (c *Cached) Uncached() Resolver {
	return c.next
}
