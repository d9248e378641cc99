package suggest

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/keys"
)

// KeyLookup resolves the metadata of the key being completed
type KeyLookup interface {
	Lookup(key string) (keys.KeyMeta, bool)
}

// Options tunes an Orchestrator. Zero fields disable the feature they
// control: no debounce, no cache, no limit, no rate limiting.
type Options struct {
	Debounce      time.Duration
	CacheTTL      time.Duration
	CacheSize     int
	Limit         int
	RatePerSecond float64 // per source
}

// OptionsFromConfig converts the am suggest section
func OptionsFromConfig(cfg am.SuggestConfig) Options {
	return Options{
		Debounce:      cfg.Debounce(),
		CacheTTL:      cfg.CacheTTL(),
		CacheSize:     cfg.CacheSize,
		Limit:         cfg.ResultLimit,
		RatePerSecond: cfg.MaxRequestsPerSecond,
	}
}

type limitedSource struct {
	Source
	limiter *rate.Limiter
}

// request is the in-flight lookup for one key
type request struct {
	generation uint64
	cancel     context.CancelFunc
}

// Orchestrator debounces, deduplicates and merges value lookups. For each
// key only the most recent GetValues call can produce values.
type Orchestrator struct {
	keys    KeyLookup
	sources []limitedSource
	opts    Options
	cache   *expirable.LRU[string, []Value]
	log     *zap.SugaredLogger

	mu         sync.Mutex
	generation map[string]uint64
	inflight   map[string]request
}

// New creates an orchestrator over sources. lookup may be nil, in which
// case every key is answered by the sources.
func New(lookup KeyLookup, sources []Source, opts Options) *Orchestrator {
	o := &Orchestrator{
		keys:       lookup,
		opts:       opts,
		log:        logger.ComponentLogger("search.suggest"),
		generation: make(map[string]uint64),
		inflight:   make(map[string]request),
	}
	for _, src := range sources {
		limit := rate.Inf
		burst := 1
		if opts.RatePerSecond > 0 {
			limit = rate.Limit(opts.RatePerSecond)
			burst = max(1, int(opts.RatePerSecond))
		}
		o.sources = append(o.sources, limitedSource{Source: src, limiter: rate.NewLimiter(limit, burst)})
	}
	if opts.CacheTTL > 0 && opts.CacheSize > 0 {
		o.cache = expirable.NewLRU[string, []Value](opts.CacheSize, nil, opts.CacheTTL)
	}
	return o
}

// GetValues starts a lookup of the values of key matching text and returns
// them as a lazy sequence. The call supersedes and cancels any earlier lookup
// for the same key; a superseded sequence yields nothing. Each sequence can
// be consumed once. Iterating waits for the debounce delay before any source
// is queried. The lookup holds a child of ctx until the sequence is iterated,
// superseded, or released with Release.
func (o *Orchestrator) GetValues(ctx context.Context, key, text string) iter.Seq[string] {
	reqCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.generation[key]++
	gen := o.generation[key]
	if prev, ok := o.inflight[key]; ok {
		prev.cancel()
	}
	o.inflight[key] = request{generation: gen, cancel: cancel}
	o.mu.Unlock()

	return func(yield func(string) bool) {
		defer o.finish(key, gen, cancel)

		values, err := o.resolve(reqCtx, key, text, gen)
		if err != nil {
			o.log.Debugw("suggestion dropped",
				logger.FieldKey, key,
				logger.FieldSearchText, text,
				logger.FieldGeneration, gen,
				logger.FieldReason, err.Error())
			return
		}
		for _, v := range values {
			if !yield(v.Value) {
				return
			}
		}
	}
}

// Release cancels the pending lookup for key, if any. A sequence returned
// by GetValues before the call yields nothing.
func (o *Orchestrator) Release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	req, ok := o.inflight[key]
	if !ok {
		return
	}
	req.cancel()
	delete(o.inflight, key)
	o.generation[key]++
}

// Lookup returns the merged values for key without debounce or supersession.
// Used by one-shot callers such as the HTTP API and the CLI.
func (o *Orchestrator) Lookup(ctx context.Context, key, text string) []Value {
	if values, ok := o.local(key, text); ok {
		return o.limit(values)
	}
	return o.limit(o.fetch(ctx, key, text))
}

func (o *Orchestrator) resolve(ctx context.Context, key, text string, gen uint64) ([]Value, error) {
	if ctx.Err() != nil {
		return nil, errors.Wrap(errors.ErrStaleResponse, "superseded before start")
	}
	if values, ok := o.local(key, text); ok {
		if !o.current(key, gen) {
			return nil, errors.ErrStaleResponse
		}
		return o.limit(values), nil
	}

	if o.opts.Debounce > 0 {
		timer := time.NewTimer(o.opts.Debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Wrap(errors.ErrStaleResponse, "superseded during debounce")
		case <-timer.C:
		}
	}
	if !o.current(key, gen) {
		return nil, errors.ErrStaleResponse
	}

	values := o.fetch(ctx, key, text)
	if ctx.Err() != nil || !o.current(key, gen) {
		return nil, errors.Wrap(errors.ErrStaleResponse, "superseded while fetching")
	}
	return o.limit(values), nil
}

func (o *Orchestrator) local(key, text string) ([]Value, bool) {
	if o.keys == nil {
		return nil, false
	}
	meta, ok := o.keys.Lookup(key)
	if !ok {
		return nil, false
	}
	return localValues(meta, text)
}

// fetch answers from the cache or queries every source concurrently.
// A failing source is logged and left out of the merge.
func (o *Orchestrator) fetch(ctx context.Context, key, text string) []Value {
	cacheKey := key + "\x00" + strings.ToLower(strings.TrimSpace(text))
	if o.cache != nil {
		if values, ok := o.cache.Get(cacheKey); ok {
			return values
		}
	}

	results := make([][]Value, len(o.sources))
	failed := make([]bool, len(o.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			start := time.Now()
			values, err := o.query(gctx, src, key, text)
			if err != nil {
				failed[i] = true
				o.log.Warnw("value source failed",
					logger.FieldSource, src.Name(),
					logger.FieldKey, key,
					logger.FieldError, err.Error())
				return nil
			}
			results[i] = values
			o.log.Debugw("value source answered",
				logger.FieldSource, src.Name(),
				logger.FieldKey, key,
				logger.FieldCount, len(values),
				logger.FieldDurationMS, time.Since(start).Milliseconds())
			return nil
		})
	}
	_ = g.Wait() // sources never fail the group

	merged := MergeAndSort(results...)
	if o.cache != nil && ctx.Err() == nil && !anyTrue(failed) {
		o.cache.Add(cacheKey, merged)
	}
	return merged
}

func (o *Orchestrator) query(ctx context.Context, src limitedSource, key, text string) ([]Value, error) {
	if err := src.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(errors.ErrSuggestionFetchFailed, "%s: rate limit: %v", src.Name(), err)
	}
	values, err := src.Values(ctx, key, text)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSuggestionFetchFailed, "%s: %v", src.Name(), err)
	}
	return values, nil
}

func (o *Orchestrator) current(key string, gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation[key] == gen
}

func (o *Orchestrator) finish(key string, gen uint64, cancel context.CancelFunc) {
	cancel()
	o.mu.Lock()
	defer o.mu.Unlock()
	if req, ok := o.inflight[key]; ok && req.generation == gen {
		delete(o.inflight, key)
	}
}

func (o *Orchestrator) limit(values []Value) []Value {
	if o.opts.Limit > 0 && len(values) > o.opts.Limit {
		values = values[:o.opts.Limit]
	}
	return slices.Clone(values)
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
