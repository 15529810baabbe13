package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/observability"
)

// prefetchTask warms tile metadata for one layer over an expanded viewport.
type prefetchTask struct {
	kind     model.LayerKind
	bounds   model.Bounds
	category model.ZoomCategory
}

// prefetcher is a FIFO queue with a single consumer goroutine. Tasks are
// processed one at a time with a pacing gap so a fast pan does not saturate
// the network. Every task settles: failures are logged, never retried.
type prefetcher struct {
	api    WeatherAPI
	tiles  *tileCache
	clock  clockwork.Clock
	pacing time.Duration
	expand float64
	log    *slog.Logger

	mu      sync.Mutex
	queue   []prefetchTask
	running bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPrefetcher(api WeatherAPI, tiles *tileCache, clock clockwork.Clock, pacing time.Duration, expand float64, log *slog.Logger) *prefetcher {
	if expand <= 0 {
		expand = 0.2
	}
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &prefetcher{
		api:    api,
		tiles:  tiles,
		clock:  clock,
		pacing: pacing,
		expand: expand,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// EnqueueViewport queues one warm task per active tile-backed layer for the
// viewport expanded on each side. If the consumer is already draining the
// queue the tasks join it; a second consumer is never started.
func (p *prefetcher) EnqueueViewport(vp ViewportState, active []model.LayerKind) {
	if len(active) == 0 {
		return
	}
	extended := vp.Bounds.Expand(p.expand)
	cat := model.CategoryForZoom(vp.Zoom)

	tasks := make([]prefetchTask, 0, len(active))
	for _, kind := range active {
		tasks = append(tasks, prefetchTask{kind: kind, bounds: extended, category: cat})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, tasks...)
	observability.SetPrefetchQueueDepth(len(p.queue))
	if !p.running {
		p.running = true
		p.wg.Add(1)
		go p.drain()
	}
}

func (p *prefetcher) drain() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(p.queue) == 0 || p.closed {
			p.running = false
			observability.SetPrefetchQueueDepth(len(p.queue))
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		observability.SetPrefetchQueueDepth(len(p.queue))
		p.mu.Unlock()

		p.warm(task)

		if p.pacing > 0 {
			select {
			case <-p.ctx.Done():
				p.mu.Lock()
				p.running = false
				p.mu.Unlock()
				return
			case <-p.clock.After(p.pacing):
			}
		}
	}
}

// warm fetches tile metadata into the engine cache. A failure settles the
// task; the loop always advances.
func (p *prefetcher) warm(task prefetchTask) {
	if _, ok := p.tiles.get(task.kind, task.category, task.bounds); ok {
		observability.IncPrefetchTask("cached")
		return
	}
	md, err := p.api.TileMetadata(p.ctx, task.kind, task.category, &task.bounds)
	if err != nil {
		observability.IncPrefetchTask("failed")
		p.log.Warn("prefetch warm failed",
			"layer", task.kind.String(), "category", task.category.String(), "err", err)
		return
	}
	p.tiles.put(task.kind, task.category, task.bounds, md)
	observability.IncPrefetchTask("warmed")
}

// Close stops the consumer and drops any queued tasks.
func (p *prefetcher) Close() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

// queued reports the number of waiting tasks.
func (p *prefetcher) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
