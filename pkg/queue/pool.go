package queue

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// Pool is the single long-running process loop: on each tick it
// preempts running LOW tasks when HIGH work is pending, claims as much
// HIGH work as its concurrency cap allows, then falls back to LOW
// work, and reaps tasks that have finished.
type Pool struct {
	podID    string
	store    *store.Store
	pipeline PipelineRunner
	cfg      *config.QueueConfig

	mu   sync.Mutex
	high map[uuid.UUID]*task
	low  map[uuid.UUID]*task

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	lastTick time.Time
}

// NewPool builds a worker pool over store and pipeline. podID identifies
// this process in logs when several pods share one queue.
func NewPool(podID string, st *store.Store, pipeline PipelineRunner, cfg *config.QueueConfig) *Pool {
	return &Pool{
		podID:    podID,
		store:    st,
		pipeline: pipeline,
		cfg:      cfg,
		high:     make(map[uuid.UUID]*task),
		low:      make(map[uuid.UUID]*task),
		stopCh:   make(chan struct{}),
	}
}

// Start requeues any items left PAUSED by a previous process's shutdown
// and begins the tick loop and the stuck-item recovery scan in the
// background. It returns once both goroutines have been launched.
func (p *Pool) Start(ctx context.Context) error {
	log := newLogger(p.podID)

	n, err := p.store.RequeuePausedOnStartup(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("requeued paused items from previous shutdown", "count", n)
	}

	p.wg.Add(2)
	go p.runLoop(ctx)
	go p.runStuckScan(ctx)

	log.Info("worker pool started",
		"max_concurrent_high", p.cfg.MaxConcurrentHigh,
		"max_concurrent_low", p.cfg.MaxConcurrentLow)
	return nil
}

// Stop cancels every active task, waits up to GracefulShutdownTimeout
// for them to exit, then returns. Tasks still running at the deadline
// are abandoned; their queue rows stay PROCESSING and are picked up by
// the next process's stuck-item recovery scan.
func (p *Pool) Stop() {
	log := newLogger(p.podID)
	log.Info("stopping worker pool")

	p.stopOnce.Do(func() { close(p.stopCh) })

	p.mu.Lock()
	active := make([]*task, 0, len(p.high)+len(p.low))
	for _, t := range p.high {
		active = append(active, t)
	}
	for _, t := range p.low {
		active = append(active, t)
	}
	p.mu.Unlock()

	for _, t := range active {
		t.cancel()
	}

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		for _, t := range active {
			<-t.done
		}
		close(waitCh)
	}()

	select {
	case <-waitCh:
		log.Info("worker pool stopped gracefully")
	case <-time.After(p.cfg.GracefulShutdownTimeout):
		log.Warn("worker pool shutdown timed out, abandoning in-flight tasks")
	}
}

// Health reports the pool's current activity for the HTTP health
// endpoint.
func (p *Pool) Health(ctx context.Context) (*PoolHealth, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return &PoolHealth{
		ActiveHigh: len(p.high),
		ActiveLow:  len(p.low),
		Stats:      stats,
		LastTick:   p.lastTick,
	}, nil
}

func (p *Pool) runLoop(ctx context.Context) {
	defer p.wg.Done()
	log := newLogger(p.podID)

	statsEvery := 30 * time.Second
	nextStats := time.Now().Add(statsEvery)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		p.lastTick = time.Now()
		if err := p.tick(ctx); err != nil {
			log.Error("tick failed", "error", err)
		}

		if time.Now().After(nextStats) {
			if stats, err := p.store.Stats(ctx); err == nil {
				log.Info("queue stats",
					"pending", stats.Pending, "processing", stats.Processing,
					"completed", stats.Completed, "failed", stats.Failed, "paused", stats.Paused)
			}
			nextStats = time.Now().Add(statsEvery)
		}

		jitter := time.Duration(rand.Int64N(int64(p.cfg.PollIntervalJitter) + 1))
		select {
		case <-time.After(p.cfg.PollInterval + jitter):
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick implements the four-step loop body: reap, preempt, claim, fall back.
func (p *Pool) tick(ctx context.Context) error {
	p.reap()

	highPending, err := p.store.HasHighPending(ctx)
	if err != nil {
		return err
	}

	if highPending {
		p.preemptLow(ctx)
	}

	for highPending {
		p.mu.Lock()
		room := len(p.high) < p.cfg.MaxConcurrentHigh
		p.mu.Unlock()
		if !room {
			break
		}
		claimed, err := p.claimAndSpawn(ctx, models.PriorityHigh)
		if err != nil {
			return err
		}
		if !claimed {
			break
		}
		highPending, err = p.store.HasHighPending(ctx)
		if err != nil {
			return err
		}
	}

	for !highPending {
		p.mu.Lock()
		room := len(p.low) < p.cfg.MaxConcurrentLow
		p.mu.Unlock()
		if !room {
			break
		}
		claimed, err := p.claimAndSpawn(ctx, models.PriorityLow)
		if err != nil {
			return err
		}
		if !claimed {
			break
		}
		highPending, err = p.store.HasHighPending(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// preemptLow cancels every running LOW task and marks their queue rows
// PAUSED. The tasks themselves remove their own map entry; requeue-on-
// cancel is left to the next process's startup requeue
// (PauseAllProcessing here covers rows whose goroutine hasn't reaped
// yet).
func (p *Pool) preemptLow(ctx context.Context) {
	p.mu.Lock()
	running := len(p.low) > 0
	for _, t := range p.low {
		t.cancel()
	}
	p.mu.Unlock()

	if !running {
		return
	}
	if err := p.store.PauseAllProcessing(ctx, models.PriorityLow); err != nil {
		newLogger(p.podID).Error("failed to pause low-priority items on preemption", "error", err)
	}
}

// claimAndSpawn claims the next eligible item of the given priority and
// spawns a goroutine running it through the pipeline. Returns false when
// there was nothing to claim.
func (p *Pool) claimAndSpawn(ctx context.Context, priority models.Priority) (bool, error) {
	item, err := p.store.ClaimNext(ctx, priority)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ItemTimeout)
	t := &task{item: item, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	if priority == models.PriorityHigh {
		p.high[item.RequestID] = t
	} else {
		p.low[item.RequestID] = t
	}
	p.mu.Unlock()

	go p.run(taskCtx, t)
	return true, nil
}

// run executes a claimed item through the pipeline and records the
// terminal status, retrying up to MaxAttempts before marking FAILED.
func (p *Pool) run(ctx context.Context, t *task) {
	defer close(t.done)
	log := newLogger(p.podID).With("request_id", t.item.RequestID, "username", t.item.Username, "priority", t.item.Priority)

	var (
		report *store.IntegrityReport
		err    error
	)
	switch t.item.Priority {
	case models.PriorityHigh:
		report, err = p.pipeline.RunComplete(ctx, t.item.Username)
	default:
		report, err = p.pipeline.RunLowPriority(ctx, t.item.Username)
	}

	bg := context.Background()
	switch {
	case err != nil:
		log.Error("pipeline run failed", "error", err)
		p.finish(bg, t, err.Error())
	case report != nil && !report.Success:
		log.Warn("pipeline run completed with integrity errors", "errors", report.Errors)
		p.finish(bg, t, joinErrors(report.Errors))
	default:
		log.Info("pipeline run completed")
		if ferr := p.store.UpdateStatus(bg, t.item.RequestID, models.QueueStatusCompleted, ""); ferr != nil {
			log.Error("failed to mark item completed", "error", ferr)
		}
	}
}

// finish marks a failed run either PENDING (for another attempt) or
// FAILED once attempts exceed the configured threshold.
func (p *Pool) finish(ctx context.Context, t *task, message string) {
	log := newLogger(p.podID).With("request_id", t.item.RequestID)
	status := models.QueueStatusFailed
	if t.item.Attempts < p.cfg.MaxAttempts {
		status = models.QueueStatusPending
	}
	if err := p.store.UpdateStatus(ctx, t.item.RequestID, status, message); err != nil {
		log.Error("failed to record terminal status", "error", err)
	}
}

// reap drops finished tasks from the active maps.
func (p *Pool) reap() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.high {
		select {
		case <-t.done:
			delete(p.high, id)
		default:
		}
	}
	for id, t := range p.low {
		select {
		case <-t.done:
			delete(p.low, id)
		default:
		}
	}
}

func (p *Pool) runStuckScan(ctx context.Context) {
	defer p.wg.Done()
	log := newLogger(p.podID)
	ticker := time.NewTicker(p.cfg.StuckScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.store.RecoverStuckItems(ctx, p.cfg.StuckThreshold)
			if err != nil {
				log.Error("stuck-item scan failed", "error", err)
				continue
			}
			if n > 0 {
				log.Warn("recovered stuck items", "count", n)
			}
		}
	}
}

func joinErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}
