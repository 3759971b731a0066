package clicks

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sundayezeilo/shortlink/internal/idgen"
)

// insertTimeout bounds each click insert. Workers run on detached contexts
// so in-flight writes survive request cancellation.
const insertTimeout = 5 * time.Second

// droppedLogEvery throttles dropped-hit warnings to one per N drops.
const droppedLogEvery = 100

// Recorder accepts raw hits for asynchronous recording.
type Recorder interface {
	// Record enqueues a hit. It never blocks; hits are dropped when the
	// buffer is full.
	Record(hit RawHit)
}

// Pipeline enriches and persists hits on a bounded worker pool.
type Pipeline struct {
	hits    chan RawHit
	repo    Repo
	locator Locator
	ids     idgen.Generator
	logger  *slog.Logger

	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Repo       Repo
	Locator    Locator
	IDs        idgen.Generator
	Logger     *slog.Logger
	BufferSize int
	Workers    int
}

// NewPipeline starts a Pipeline with the configured worker pool.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.IDs == nil {
		cfg.IDs = idgen.NewV7()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Pipeline{
		hits:    make(chan RawHit, cfg.BufferSize),
		repo:    cfg.Repo,
		locator: cfg.Locator,
		ids:     cfg.IDs,
		logger:  cfg.Logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Record enqueues a hit for recording. When the buffer is full the hit is
// dropped; the redirect path never waits on analytics.
func (p *Pipeline) Record(hit RawHit) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.hits <- hit:
	default:
		n := p.dropped.Add(1)
		if n%droppedLogEvery == 1 {
			p.logger.Warn("click buffer full, dropping hits",
				"dropped_total", n,
				"short_code", hit.ShortCode,
			)
		}
	}
}

// Dropped reports how many hits have been dropped since startup.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops intake and waits for queued hits to drain, up to ctx.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.hits)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	for hit := range p.hits {
		p.process(hit)
	}
}

// process enriches and persists one hit. Failures are logged and swallowed:
// a lost click log must never surface to a visitor.
func (p *Pipeline) process(hit RawHit) {
	click := enrich(hit, p.locator)

	id, err := p.ids.Generate()
	if err != nil {
		p.logger.Error("failed to generate click id",
			"short_code", hit.ShortCode,
			"error", err,
		)
		return
	}
	click.ID = id

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := p.repo.Insert(ctx, click); err != nil {
		p.logger.Error("failed to record click",
			"short_code", hit.ShortCode,
			"error", err,
		)
	}
}
