// Package projection keeps live, filtered local views of remote collections.
//
// A Projector subscribes to a collection query, replaces its whole cache on
// every snapshot and emits the filtered view to its consumer. Filter changes
// re-emit from the cache without touching the store. Optimistic mutations are
// applied locally first and settled when the remote write finishes; the next
// snapshot is always authoritative.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/metrics"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

// Entity is a cacheable domain value.
type Entity[T any] interface {
	EntityID() string
	Clone() T
}

type Projector[T Entity[T]] struct {
	entity   string
	store    store.RemoteStore
	query    store.Query
	decode   func(json.RawMessage) (T, bool)
	accept   func(T) bool
	logger   *slog.Logger
	recorder metrics.Recorder
	retry    retry.Policy

	mu          sync.Mutex
	cache       orderedCache[T]
	generation  uint64
	filter      func(T) bool
	onUpdate    func([]T)
	onError     func(error)
	subID       store.SubscriptionID
	subscribed  bool
	hasSnapshot bool
	lastErr     error
	ready       chan struct{}
	readyOnce   sync.Once
}

func newProjector[T Entity[T]](entity string, s store.RemoteStore, q store.Query, decode func(json.RawMessage) (T, bool), opts []Option) *Projector[T] {
	o := buildOptions(opts)
	return &Projector[T]{
		entity:   entity,
		store:    s,
		query:    q,
		decode:   decode,
		logger:   o.logger.With(slog.String("collection", q.Collection), slog.String("entity", entity)),
		recorder: o.recorder,
		retry:    o.retry,
		cache:    newOrderedCache[T](0),
		ready:    make(chan struct{}),
	}
}

// Subscribe starts the continuous listener. onUpdate receives the filtered view
// after every snapshot and filter change; onError receives transport errors,
// after which the cache keeps its last contents. Callbacks may run on a store
// goroutine and must not block.
func (p *Projector[T]) Subscribe(onUpdate func([]T), onError func(error)) error {
	p.mu.Lock()
	if p.subscribed {
		p.mu.Unlock()
		return errors.New("projector is already subscribed")
	}
	p.subscribed = true
	p.onUpdate = onUpdate
	p.onError = onError
	p.mu.Unlock()

	id, err := p.store.Subscribe(p.query, p.applySnapshot, p.handleError)
	if err != nil {
		p.mu.Lock()
		p.subscribed = false
		p.onUpdate = nil
		p.onError = nil
		p.mu.Unlock()
		p.recorder.RecordTransportError("subscribe")
		return domain.NewTransportError("subscribe to "+p.query.Collection, err)
	}

	p.mu.Lock()
	if !p.subscribed {
		// Unsubscribe ran while the store was registering the listener.
		p.mu.Unlock()
		p.store.Unsubscribe(id)
		return nil
	}
	p.subID = id
	p.mu.Unlock()

	p.recorder.SubscriptionOpened(p.query.Collection)
	p.logger.Debug("subscribed")
	return nil
}

// Unsubscribe tears down the listener. The cache stays readable.
func (p *Projector[T]) Unsubscribe() {
	p.mu.Lock()
	if !p.subscribed {
		p.mu.Unlock()
		return
	}
	p.subscribed = false
	id := p.subID
	p.subID = 0
	p.onUpdate = nil
	p.onError = nil
	p.mu.Unlock()

	if id != 0 {
		p.store.Unsubscribe(id)
		p.recorder.SubscriptionClosed(p.query.Collection)
	}
	p.logger.Debug("unsubscribed")
}

// SetFilter swaps the active filter and re-emits from the cache. A nil filter
// shows everything.
func (p *Projector[T]) SetFilter(filter func(T) bool) {
	p.mu.Lock()
	p.filter = filter
	view := p.cache.values(p.filter)
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(view)
	}
}

// View returns the filtered projection of the cache.
func (p *Projector[T]) View() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.values(p.filter)
}

// Items returns every cached entity regardless of the filter.
func (p *Projector[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.values(nil)
}

func (p *Projector[T]) Get(id string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.cache.get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return e.value.Clone(), true
}

func (p *Projector[T]) Status(id string) (domain.SyncStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.cache.get(id)
	if !ok {
		return "", false
	}
	return e.status, true
}

func (p *Projector[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.len()
}

// WaitReady blocks until the first snapshot or error arrives. It returns the
// transport error when no snapshot has been received yet.
func (p *Projector[T]) WaitReady(ctx context.Context) error {
	select {
	case <-p.ready:
	case <-ctx.Done():
		return domain.NewTransportError("wait for "+p.query.Collection, ctx.Err())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasSnapshot && p.lastErr != nil {
		return p.lastErr
	}
	return nil
}

func (p *Projector[T]) markReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

func (p *Projector[T]) applySnapshot(snap store.Snapshot) {
	decoded := make([]T, 0, len(snap.Children))
	skipped := 0
	for _, child := range snap.Children {
		v, ok := p.decode(child.Value)
		if !ok || (p.accept != nil && !p.accept(v)) {
			skipped++
			p.recorder.RecordDecodeSkip(p.entity)
			p.logger.Debug("record skipped", slog.String("key", child.Key))
			continue
		}
		decoded = append(decoded, v)
	}

	p.mu.Lock()
	if !p.subscribed {
		p.mu.Unlock()
		return
	}
	next := newOrderedCache[T](len(decoded))
	for _, v := range decoded {
		e := &entry[T]{value: v, base: v.Clone(), status: domain.StatusSynced}
		if prev, ok := p.cache.get(v.EntityID()); ok && prev.inflight > 0 {
			e.status = domain.StatusPending
			e.inflight = prev.inflight
		}
		next.put(e)
	}
	p.cache = next
	p.generation++
	p.hasSnapshot = true
	p.lastErr = nil
	view := p.cache.values(p.filter)
	cb := p.onUpdate
	p.mu.Unlock()

	p.recorder.RecordSnapshot(p.query.Collection, len(decoded))
	p.logger.Debug("snapshot applied", slog.Int("entities", len(decoded)), slog.Int("skipped", skipped))
	p.markReady()

	if cb != nil {
		cb(view)
	}
}

func (p *Projector[T]) handleError(err error) {
	terr := domain.NewTransportError("sync "+p.query.Collection, err)

	p.mu.Lock()
	if !p.subscribed {
		p.mu.Unlock()
		return
	}
	p.lastErr = terr
	cb := p.onError
	p.mu.Unlock()

	p.recorder.RecordTransportError("subscribe")
	p.logger.Warn("subscription error", slog.Any("error", err))
	p.markReady()

	if cb != nil {
		cb(terr)
	}
}

// mutate applies change to the cached entity optimistically, emits, performs
// write with retries and settles the entity. While other writes to the same
// entity are in flight a failure changes nothing; the last one to settle
// restores the value last known to be in the store.
func (p *Projector[T]) mutate(ctx context.Context, id, op, path string, change func(T) (T, bool), write func(context.Context) error) error {
	p.mu.Lock()
	e, ok := p.cache.get(id)
	if !ok {
		p.mu.Unlock()
		return domain.NewNotFoundError(p.entity + " " + id)
	}
	next, changed := change(e.value.Clone())
	if !changed && e.status == domain.StatusSynced {
		p.mu.Unlock()
		return nil
	}
	e.value = next.Clone()
	e.status = domain.StatusPending
	e.inflight++
	generation := p.generation
	view := p.cache.values(p.filter)
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(view)
	}

	err := retry.Do(ctx, p.retry, write, func(err error, wait time.Duration) {
		p.recorder.RecordWriteRetry(op)
		p.logger.Debug("retrying write", slog.String("path", path), slog.Duration("wait", wait), slog.Any("error", err))
	})

	p.mu.Lock()
	if e, ok := p.cache.get(id); ok {
		if e.inflight > 0 {
			e.inflight--
		}
		if err == nil && p.generation == generation {
			e.base = next
		}
		if e.inflight == 0 {
			if err != nil {
				e.value = e.base.Clone()
				e.status = domain.StatusFailed
			} else {
				e.status = domain.StatusSynced
			}
		}
	}
	view = p.cache.values(p.filter)
	cb = p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		cb(view)
	}

	if err != nil {
		p.recorder.RecordWriteFailure(op)
		p.logger.Warn("optimistic write failed", slog.String("path", path), slog.Any("error", err))
		return domain.NewWriteFailure(path, err)
	}
	return nil
}
