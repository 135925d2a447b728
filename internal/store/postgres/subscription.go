package postgres

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/store"
	"golang.org/x/time/rate"
)

type subscription struct {
	id         store.SubscriptionID
	query      store.Query
	onSnapshot func(store.Snapshot)
	onError    func(error)
	limiter    *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}

	mu      sync.Mutex
	pending error
}

func newSubscription(parent context.Context, id store.SubscriptionID, q store.Query, onSnapshot func(store.Snapshot), onError func(error), limiter *rate.Limiter) *subscription {
	ctx, cancel := context.WithCancel(parent)
	return &subscription{
		id:         id,
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		limiter:    limiter,
		ctx:        ctx,
		cancel:     cancel,
		wake:       make(chan struct{}, 1),
	}
}

// notify asks for a refetch. Pending requests coalesce into one.
func (sub *subscription) notify() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

// fail queues err for delivery on the subscription goroutine.
func (sub *subscription) fail(err error) {
	sub.mu.Lock()
	sub.pending = err
	sub.mu.Unlock()
	sub.notify()
}

func (sub *subscription) takeError() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	err := sub.pending
	sub.pending = nil
	return err
}

// runSubscription delivers the initial snapshot and then one fresh snapshot per
// wake-up. All callbacks of a subscription run on this goroutine, in order.
func (s *Store) runSubscription(sub *subscription) {
	defer s.wg.Done()
	defer sub.cancel()

	var tick <-chan time.Time
	if s.refresh > 0 {
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := sub.takeError(); err != nil && sub.onError != nil {
			sub.onError(err)
		}

		if err := sub.limiter.Wait(sub.ctx); err != nil {
			return
		}
		snap, err := s.querySnapshot(sub.ctx, sub.query)
		if sub.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Warn("subscription refetch failed",
				slog.Uint64("id", uint64(sub.id)),
				slog.String("collection", sub.query.Collection),
				slog.Any("error", err),
			)
			if sub.onError != nil {
				sub.onError(err)
			}
		} else {
			sub.onSnapshot(snap)
		}

		select {
		case <-sub.ctx.Done():
			return
		case <-sub.wake:
		case <-tick:
		}
	}
}

func (s *Store) wakeCollection(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.query.Collection == collection {
			sub.notify()
		}
	}
}

func (s *Store) wakeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.notify()
	}
}

func (s *Store) failAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.fail(err)
	}
}
