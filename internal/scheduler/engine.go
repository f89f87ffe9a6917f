// Package scheduler implements the scheduling engine (C5): an in-memory
// priority queue of due triggers backed by the durable Trigger store, and
// a single dispatcher task that wakes on a timer or a registration signal
// and fans due fires out to the worker pool.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"triggerd/internal/clock"
	"triggerd/internal/cronexpr"
	"triggerd/internal/models"
	"triggerd/internal/store"
)

// SpecKind discriminates how a Job should be registered with the engine.
type SpecKind int

const (
	FireNow SpecKind = iota
	FireAt
	FireCron
)

// Spec describes when a Job should next fire, per spec §4.4's
// register(job_id, spec) contract.
type Spec struct {
	Kind SpecKind
	At   time.Time // for FireAt: zone-less wall-clock, interpreted in Zone
	Cron string    // for FireCron
	Zone string
}

// Fire is one dispatched unit of work handed to the worker pool: the Job to
// run, and a context that Deregister/Complete cancel once the fire is no
// longer wanted — the in-flight-cancellation half of spec §5's "Delete
// cancels both queued and in-flight fires".
type Fire struct {
	JobID uuid.UUID
	Ctx   context.Context
}

const (
	dispatchSlop  = 5 * time.Millisecond
	reEvalDelay   = 100 * time.Millisecond
	lateFireAfter = time.Second
	channelCap    = 25
	idleWait      = time.Hour
)

// Engine is the scheduling engine. Exactly one dispatcher goroutine should
// run it at a time (Run).
type Engine struct {
	mu       sync.Mutex
	byJob    map[uuid.UUID]*triggerItem
	heap     triggerHeap
	inFlight map[uuid.UUID]struct{}
	cancels  map[uuid.UUID]context.CancelFunc
	wake     chan struct{}

	triggerStore store.TriggerStore
	clock        *clock.Service
	logger       *zap.Logger

	fireChan chan Fire
}

func New(triggerStore store.TriggerStore, clk *clock.Service, logger *zap.Logger) *Engine {
	return &Engine{
		byJob:        make(map[uuid.UUID]*triggerItem),
		inFlight:     make(map[uuid.UUID]struct{}),
		cancels:      make(map[uuid.UUID]context.CancelFunc),
		wake:         make(chan struct{}, 1),
		triggerStore: triggerStore,
		clock:        clk,
		logger:       logger,
		fireChan:     make(chan Fire, channelCap),
	}
}

// Fires is the channel the worker pool reads due fires from.
func (e *Engine) Fires() <-chan Fire {
	return e.fireChan
}

// Reload rehydrates the in-memory heap from the durable Trigger store,
// called once on process start (spec §4.4), typically guarded by the
// distributed lock against concurrent instances.
func (e *Engine) Reload(ctx context.Context) error {
	triggers, err := e.triggerStore.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "scheduler: reload")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range triggers {
		item := &triggerItem{
			JobID:           t.JobID,
			NextFireInstant: t.NextFireInstant,
			Cron:            t.Cron,
			Zone:            t.Zone,
			Paused:          t.Paused,
		}
		e.byJob[t.JobID] = item
		if !item.Paused {
			heap.Push(&e.heap, item)
		}
	}
	return nil
}

// Register computes the first next_fire_instant for spec, persists the
// Trigger, and enqueues it in memory. Returns the computed instant.
func (e *Engine) Register(ctx context.Context, jobID uuid.UUID, spec Spec) (time.Time, error) {
	var next time.Time

	switch spec.Kind {
	case FireNow:
		next = e.clock.Now()
	case FireAt:
		at, err := e.clock.ToInstant(spec.At, spec.Zone)
		if err != nil {
			return time.Time{}, err
		}
		next = at
	case FireCron:
		loc, err := e.clock.Zone(spec.Zone)
		if err != nil {
			return time.Time{}, err
		}
		next, err = cronexpr.NextAfter(e.clock.Now(), spec.Cron, loc)
		if err != nil {
			return time.Time{}, err
		}
	default:
		return time.Time{}, errors.Newf("scheduler: unknown spec kind %d", spec.Kind)
	}

	trigger := &models.Trigger{
		JobID:           jobID,
		NextFireInstant: next,
		Cron:            spec.Cron,
		Zone:            spec.Zone,
	}
	if err := e.triggerStore.Upsert(ctx, trigger); err != nil {
		return time.Time{}, errors.Wrap(err, "scheduler: persist trigger")
	}

	e.mu.Lock()
	item := &triggerItem{JobID: jobID, NextFireInstant: next, Cron: spec.Cron, Zone: spec.Zone}
	e.byJob[jobID] = item
	heap.Push(&e.heap, item)
	e.mu.Unlock()
	e.signalWake()

	return next, nil
}

// Deregister removes a Job's Trigger from both memory and durable storage
// (used by delete), and cancels the Job's fire context if one is currently
// in flight — the in-flight half of spec §5's delete-cancels-both rule.
func (e *Engine) Deregister(ctx context.Context, jobID uuid.UUID) error {
	e.mu.Lock()
	if item, ok := e.byJob[jobID]; ok {
		e.removeFromHeap(item)
		delete(e.byJob, jobID)
	}
	delete(e.inFlight, jobID)
	if cancel, ok := e.cancels[jobID]; ok {
		cancel()
		delete(e.cancels, jobID)
	}
	e.mu.Unlock()

	if err := e.triggerStore.Delete(ctx, jobID); err != nil {
		return errors.Wrap(err, "scheduler: deregister")
	}
	return nil
}

// Pause flips the paused flag and removes the Job from the dispatchable
// heap; no-op if already paused.
func (e *Engine) Pause(ctx context.Context, jobID uuid.UUID) error {
	e.mu.Lock()
	item, ok := e.byJob[jobID]
	if !ok {
		e.mu.Unlock()
		return store.ErrNotFound
	}
	if item.Paused {
		e.mu.Unlock()
		return nil
	}
	item.Paused = true
	e.removeFromHeap(item)
	e.mu.Unlock()

	return errors.Wrap(e.triggerStore.SetPaused(ctx, jobID, true), "scheduler: pause")
}

// Resume flips the paused flag back and reinserts the Job; if a recurring
// Job's next_fire_instant has already lapsed while paused, it is recomputed
// from now rather than catching up on the missed fires (see SPEC_FULL.md
// open question decisions — no backfill). A lapsed one-shot or immediate
// trigger is reinserted unchanged, so it fires on the next dispatch.
func (e *Engine) Resume(ctx context.Context, jobID uuid.UUID) error {
	e.mu.Lock()
	item, ok := e.byJob[jobID]
	if !ok {
		e.mu.Unlock()
		return store.ErrNotFound
	}
	if !item.Paused {
		e.mu.Unlock()
		return nil
	}
	item.Paused = false

	if item.NextFireInstant.Before(e.clock.Now()) && item.Cron != "" {
		if loc, err := e.clock.Zone(item.Zone); err == nil {
			if next, err := cronexpr.NextAfter(e.clock.Now(), item.Cron, loc); err == nil {
				item.NextFireInstant = next
			}
		}
	}
	heap.Push(&e.heap, item)
	e.mu.Unlock()
	e.signalWake()

	if err := e.triggerStore.Upsert(ctx, &models.Trigger{
		JobID: jobID, NextFireInstant: item.NextFireInstant, Cron: item.Cron, Zone: item.Zone, Paused: false,
	}); err != nil {
		return errors.Wrap(err, "scheduler: resume")
	}
	return nil
}

// Complete releases the per-JobId in-flight lock (P5) once a fire's
// outcome has been persisted, allowing the next fire to be dispatched, and
// releases the fire's cancellation context.
func (e *Engine) Complete(jobID uuid.UUID) {
	e.mu.Lock()
	delete(e.inFlight, jobID)
	if cancel, ok := e.cancels[jobID]; ok {
		cancel()
		delete(e.cancels, jobID)
	}
	e.mu.Unlock()
	e.signalWake()
}

func (e *Engine) removeFromHeap(item *triggerItem) {
	if item.index < 0 || item.index >= len(e.heap) || e.heap[item.index] != item {
		return
	}
	heap.Remove(&e.heap, item.index)
}

func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run is the single dispatcher task: sleep until now >= head.next_fire or
// a new earlier head is registered, then dispatch all due triggers.
func (e *Engine) Run(ctx context.Context) {
	for {
		wait := e.nextWait()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-e.wake:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return
		}

		e.dispatchDue(ctx)
	}
}

func (e *Engine) nextWait() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heap.Len() == 0 {
		return idleWait
	}
	wait := e.heap[0].NextFireInstant.Sub(e.clock.Now())
	if wait < 0 {
		return 0
	}
	return wait
}

func (e *Engine) dispatchDue(ctx context.Context) {
	now := e.clock.Now()

	e.mu.Lock()
	var due []*triggerItem
	for e.heap.Len() > 0 {
		head := e.heap[0]
		if head.NextFireInstant.After(now.Add(dispatchSlop)) {
			break
		}
		heap.Pop(&e.heap)

		if _, busy := e.inFlight[head.JobID]; busy {
			e.logger.Warn("scheduler: skipping overlapping fire", zap.String("job_id", head.JobID.String()))
			if head.Cron != "" {
				if loc, err := e.clock.Zone(head.Zone); err == nil {
					if next, err := cronexpr.NextAfter(now, head.Cron, loc); err == nil {
						head.NextFireInstant = next
						heap.Push(&e.heap, head)
						continue
					}
				}
			}
			continue
		}

		e.inFlight[head.JobID] = struct{}{}
		due = append(due, head)
	}
	e.mu.Unlock()

	for _, item := range due {
		e.advanceAndSubmit(ctx, item, now)
	}
}

// advanceAndSubmit submits the fire to the worker pool first; only once the
// channel accepts it does it advance the recurring next-fire (or drop the
// one-shot/immediate trigger). If the channel is saturated, the item is
// held in the heap for re-evaluation 100ms later and in-flight tracking is
// released, per spec §5 backpressure — no fire is dropped silently.
//
// Each dispatched fire carries its own cancellable context, derived from
// ctx and tracked in e.cancels, so Deregister/Complete can cut a fire short
// without affecting any other in-flight job.
func (e *Engine) advanceAndSubmit(ctx context.Context, item *triggerItem, now time.Time) {
	fireCtx, cancel := context.WithCancel(ctx)

	select {
	case e.fireChan <- Fire{JobID: item.JobID, Ctx: fireCtx}:
		e.mu.Lock()
		e.cancels[item.JobID] = cancel
		e.mu.Unlock()
	default:
		cancel()
		e.mu.Lock()
		item.NextFireInstant = e.clock.Now().Add(reEvalDelay)
		heap.Push(&e.heap, item)
		delete(e.inFlight, item.JobID)
		e.mu.Unlock()
		return
	}

	if lag := e.clock.Now().Sub(now); lag > lateFireAfter {
		e.logger.Warn("scheduler: late fire", zap.String("job_id", item.JobID.String()), zap.Duration("lag", lag))
	}

	if item.Cron != "" {
		if loc, err := e.clock.Zone(item.Zone); err == nil {
			if next, err := cronexpr.NextAfter(item.NextFireInstant, item.Cron, loc); err == nil {
				item.NextFireInstant = next
				e.mu.Lock()
				heap.Push(&e.heap, item)
				e.mu.Unlock()
				if err := e.triggerStore.Upsert(ctx, &models.Trigger{
					JobID: item.JobID, NextFireInstant: next, Cron: item.Cron, Zone: item.Zone,
				}); err != nil {
					e.logger.Error("scheduler: persist next fire failed", zap.Error(err))
				}
			}
		}
	} else {
		if err := e.triggerStore.Delete(ctx, item.JobID); err != nil {
			e.logger.Error("scheduler: delete trigger failed", zap.Error(err))
		}
		e.mu.Lock()
		delete(e.byJob, item.JobID)
		e.mu.Unlock()
	}
}
