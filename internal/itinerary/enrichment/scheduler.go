package enrichment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/observability"
	"github.com/yungbote/itinerary-backend/internal/pkg/httpx"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// Mutator is the single-writer document owner the scheduler writes results through. fn
// reports whether it changed the document; an unchanged document is not persisted.
type Mutator interface {
	Snapshot() *itinerary.Document
	Mutate(ctx context.Context, fn func(doc *itinerary.Document) (bool, error)) (*itinerary.Document, error)
}

// Cache is the persisted content-addressed store of fetched records.
type Cache interface {
	Lookup(ctx context.Context, promptTexts []string) (Index, error)
	Store(ctx context.Context, records Index) error
}

// Notifier hears about every finished pass that enriched something.
type Notifier interface {
	Enriched(ctx context.Context, report Report)
}

type Config struct {
	MaxBatchSize int
	MaxAttempts  int
	BaseBackoff  time.Duration
	Concurrency  int
}

func DefaultConfig() Config {
	return Config{MaxBatchSize: 10, MaxAttempts: 3, BaseBackoff: time.Second, Concurrency: 2}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = def.MaxBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BaseBackoff < 0 {
		c.BaseBackoff = 0
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

// Report summarises one pass.
type Report struct {
	Pending      int `json:"pending"`
	CacheHits    int `json:"cacheHits"`
	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failedChunks"`
	Enriched     int `json:"enriched"`
	Failed       int `json:"failed"`
	Stale        int `json:"stale"`
}

type Scheduler struct {
	log    *logger.Logger
	cap    Capability
	cell   Mutator
	cache  Cache
	notify Notifier
	cfg    Config
	tracer trace.Tracer

	sleep func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	again   bool
}

// NewScheduler wires a scheduler. cache and notify may be nil.
func NewScheduler(baseLog *logger.Logger, capability Capability, cell Mutator, cache Cache, notify Notifier, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:    baseLog.With("component", "EnrichmentScheduler"),
		cap:    capability,
		cell:   cell,
		cache:  cache,
		notify: notify,
		cfg:    cfg.withDefaults(),
		tracer: otel.Tracer("itinerary/enrichment"),
		sleep:  httpx.Sleep,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule starts a background pass over doc and returns at once. A call that arrives while
// a pass is running is folded into one follow-up pass over the latest snapshot.
func (s *Scheduler) Schedule(doc *itinerary.Document) {
	if s == nil || doc == nil {
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	if s.running {
		s.again = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			s.runDetached(doc)
			s.mu.Lock()
			if !s.again || s.ctx.Err() != nil {
				s.running = false
				s.again = false
				s.mu.Unlock()
				return
			}
			s.again = false
			s.mu.Unlock()
			doc = s.cell.Snapshot()
		}
	}()
}

func (s *Scheduler) runDetached(doc *itinerary.Document) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Enrichment pass panic", "panic", r)
		}
	}()
	if _, err := s.Run(s.ctx, doc); err != nil {
		s.log.Warn("Enrichment pass failed", "error", err)
	}
}

// Wait blocks until no background pass is running.
func (s *Scheduler) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// Close cancels background passes and waits for them to return.
func (s *Scheduler) Close() {
	if s == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// Run performs one enrichment pass synchronously. Chunk failures are logged and leave their
// entries nil; the only error returned is a failed write of the results.
func (s *Scheduler) Run(ctx context.Context, doc *itinerary.Document) (report Report, err error) {
	pending := CollectPending(doc)
	report.Pending = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	start := time.Now()
	defer func() {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case report.Enriched == 0:
			status = "empty"
		}
		observability.Current().ObserveEnrichmentPass(status, time.Since(start), report.Enriched, report.CacheHits, report.Failed, report.Stale)
	}()

	ctx, span := s.tracer.Start(ctx, "enrichment.run", trace.WithAttributes(attribute.Int("pending", len(pending))))
	defer span.End()

	results, remaining := s.lookupCached(ctx, pending)
	report.CacheHits = len(results)

	chunks := chunk(remaining, s.cfg.MaxBatchSize)
	report.Chunks = len(chunks)
	fetched := make([][]*itinerary.Enrichment, len(chunks))
	var failedChunks, failedItems int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			recs, err := s.enrichChunk(ctx, i, c)
			if err != nil {
				atomic.AddInt64(&failedChunks, 1)
				atomic.AddInt64(&failedItems, int64(len(c)))
				s.log.Error("Enrichment chunk exhausted retries", "chunk", i, "items", len(c), "error", err)
				return nil
			}
			fetched[i] = recs
			return nil
		})
	}
	_ = g.Wait()
	report.FailedChunks = int(failedChunks)
	report.Failed = int(failedItems)

	fresh := Index{}
	for i, recs := range fetched {
		for j, rec := range recs {
			results = append(results, found{p: chunks[i][j], rec: rec})
			fresh[chunks[i][j].PromptText] = rec
		}
	}
	if len(results) == 0 {
		span.SetStatus(codes.Error, "no chunk succeeded")
		return report, nil
	}

	enriched, stale := 0, 0
	_, err = s.cell.Mutate(ctx, func(cur *itinerary.Document) (bool, error) {
		enriched, stale = 0, 0
		for _, r := range results {
			e, ok := cur.Resolve(r.p.Ref)
			if !ok || e.PromptText() != r.p.PromptText || e.Enrichment() != nil {
				stale++
				s.log.Debug("Dropping stale enrichment result", "ref", r.p.Ref.String(), "prompt_text", r.p.PromptText)
				continue
			}
			e.SetEnrichment(r.rec.Clone())
			enriched++
		}
		return enriched > 0, nil
	})
	report.Enriched, report.Stale = enriched, stale

	if s.cache != nil && len(fresh) > 0 {
		if cerr := s.cache.Store(ctx, fresh); cerr != nil {
			s.log.Warn("Enrichment cache write failed", "error", cerr)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return report, fmt.Errorf("apply enrichment: %w", err)
	}

	span.SetAttributes(
		attribute.Int("enriched", report.Enriched),
		attribute.Int("failed", report.Failed),
		attribute.Int("stale", report.Stale),
	)
	s.log.Info("Enrichment pass complete",
		"pending", report.Pending,
		"cache_hits", report.CacheHits,
		"chunks", report.Chunks,
		"failed_chunks", report.FailedChunks,
		"enriched", report.Enriched,
		"stale", report.Stale,
	)
	if s.notify != nil && report.Enriched > 0 {
		s.notify.Enriched(ctx, report)
	}
	return report, nil
}

// found pairs a pending entry with the record to write into it.
type found struct {
	p   Pending
	rec *itinerary.Enrichment
}

func (s *Scheduler) lookupCached(ctx context.Context, pending []Pending) ([]found, []Pending) {
	if s.cache == nil {
		return nil, pending
	}
	keys := make([]string, 0, len(pending))
	for _, p := range pending {
		keys = append(keys, p.PromptText)
	}
	ix, err := s.cache.Lookup(ctx, keys)
	if err != nil {
		s.log.Warn("Enrichment cache lookup failed", "error", err)
		return nil, pending
	}
	var hits []found
	var rest []Pending
	for _, p := range pending {
		if rec, ok := ix.Get(p.PromptText); ok {
			hits = append(hits, found{p: p, rec: rec})
			continue
		}
		rest = append(rest, p)
	}
	return hits, rest
}

// enrichChunk calls the capability with linear backoff between attempts and returns one
// normalised record per entry.
func (s *Scheduler) enrichChunk(ctx context.Context, idx int, items []Pending) ([]*itinerary.Enrichment, error) {
	ctx, span := s.tracer.Start(ctx, "enrichment.chunk", trace.WithAttributes(
		attribute.Int("chunk", idx),
		attribute.Int("items", len(items)),
	))
	defer span.End()

	reqs := make([]Request, len(items))
	for i, p := range items {
		reqs[i] = p.Request
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		recs, err := s.cap.Enrich(ctx, reqs)
		if err == nil && len(recs) != len(reqs) {
			err = fmt.Errorf("%w: got %d records for %d items", ErrLengthMismatch, len(recs), len(reqs))
		}
		if err == nil {
			out := make([]*itinerary.Enrichment, len(recs))
			for i, rec := range recs {
				out[i] = NormalizeRecord(reqs[i], rec)
			}
			span.SetAttributes(attribute.Int("attempts", attempt))
			return out, nil
		}
		lastErr = err
		s.log.Warn("Enrichment attempt failed", "chunk", idx, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
		if attempt < s.cfg.MaxAttempts {
			if serr := s.sleep(ctx, s.cfg.BaseBackoff*time.Duration(attempt)); serr != nil {
				break
			}
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return nil, lastErr
}
