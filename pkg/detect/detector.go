// Package detect ties the citation engine to the service: it owns the active
// alias index, swaps it on reload and serves detection requests through an
// optional result cache.
package detect

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coolbeans/lawlinks/pkg/cache"
	"github.com/coolbeans/lawlinks/pkg/citation"
	"github.com/coolbeans/lawlinks/pkg/logging"
	"github.com/coolbeans/lawlinks/pkg/metrics"
)

// ErrNoIndex is returned by Detect before any index has been installed.
var ErrNoIndex = errors.New("no alias index available")

// state is one installed index with the extractor built over it.
type state struct {
	index      *citation.Index
	extractor  *citation.Extractor
	generation uint64
}

// Detector serves link detection over the most recently built index.
// Detect may run concurrently with BuildIndex; in-flight requests keep the
// index they started with.
type Detector struct {
	current    atomic.Pointer[state]
	generation atomic.Uint64

	lem       *citation.Lemmatizer
	compact   bool
	lookahead int
	cache     cache.Cache
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLemmatizer sets the lemmatizer used for aliases and texts.
func WithLemmatizer(lem *citation.Lemmatizer) Option {
	return func(d *Detector) { d.lem = lem }
}

// WithCompact toggles compact alias matching.
func WithCompact(enabled bool) Option {
	return func(d *Detector) { d.compact = enabled }
}

// WithLookahead sets the law-name window budget.
func WithLookahead(n int) Option {
	return func(d *Detector) { d.lookahead = n }
}

// WithCache sets the result cache.
func WithCache(c cache.Cache) Option {
	return func(d *Detector) {
		if c != nil {
			d.cache = c
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a detector without an index. Detect fails with ErrNoIndex until
// BuildIndex succeeds.
func New(opts ...Option) *Detector {
	d := &Detector{
		lem:       citation.NewLemmatizer(nil),
		compact:   true,
		lookahead: citation.DefaultLookahead,
		cache:     cache.NewNop(),
		metrics:   metrics.NewNop(),
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildIndex builds an index from entries and installs it. On error the
// previously installed index, if any, stays active.
func (d *Detector) BuildIndex(entries []citation.AliasEntry) error {
	start := time.Now()
	idx, err := citation.NewIndex(entries,
		citation.WithLemmatizer(d.lem),
		citation.WithCompact(d.compact),
	)
	if err != nil {
		d.metrics.IndexBuilt(false, 0)
		d.logger.Error("alias index build failed",
			logging.Int("entries", len(entries)),
			logging.Err(err),
		)
		return fmt.Errorf("building alias index: %w", err)
	}

	s := &state{
		index:      idx,
		extractor:  citation.NewExtractor(idx, citation.WithLookahead(d.lookahead)),
		generation: d.generation.Add(1),
	}
	d.current.Store(s)
	d.metrics.IndexBuilt(true, idx.Laws())

	d.logger.Info("alias index installed",
		logging.Int("laws", idx.Laws()),
		logging.Int("keys", idx.Keys()),
		logging.Int("compact_keys", idx.CompactKeys()),
		logging.Int("generation", int(s.generation)),
		logging.Duration("took", time.Since(start)),
	)
	return nil
}

// Ready reports whether an index is installed.
func (d *Detector) Ready() bool {
	return d.current.Load() != nil
}

// Index returns the active index, or nil before the first build.
func (d *Detector) Index() *citation.Index {
	s := d.current.Load()
	if s == nil {
		return nil
	}
	return s.index
}

// Detect returns the links cited in text.
func (d *Detector) Detect(ctx context.Context, text string) ([]citation.Link, error) {
	s := d.current.Load()
	if s == nil {
		d.metrics.ObserveDetect(metrics.OutcomeNoIndex, 0, 0)
		return nil, ErrNoIndex
	}

	key := cache.Key(s.generation, text)
	links, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		d.metrics.CacheLookup(true)
		d.metrics.ObserveDetect(metrics.OutcomeCached, len(links), 0)
		return links, nil
	case errors.Is(err, cache.ErrMiss):
		d.metrics.CacheLookup(false)
	default:
		d.logger.Warn("result cache lookup failed", logging.Err(err))
	}

	start := time.Now()
	links = s.extractor.Extract(text)
	took := time.Since(start)

	d.metrics.ObserveDetect(metrics.OutcomeOK, len(links), took)
	d.logger.Debug("links detected",
		logging.Int("text_bytes", len(text)),
		logging.Int("links", len(links)),
		logging.Duration("took", took),
	)

	if err := d.cache.Set(ctx, key, links); err != nil {
		d.logger.Warn("result cache store failed", logging.Err(err))
	}
	return links, nil
}
