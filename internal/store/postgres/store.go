// Package postgres implements store.RemoteStore on a single jsonb records table.
//
// Every write commits together with a pg_notify on the changes channel carrying
// the collection name. Subscriptions share one LISTEN connection and refetch
// their query whenever their collection changes.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"golang.org/x/time/rate"
)

const NotifyChannel = "remote_store_changes"

var (
	_ store.RemoteStore = (*Store)(nil)
	_ store.SetWriter   = (*Store)(nil)
)

type listenFunc func(ctx context.Context, ready func(), notify func(collection string)) error

type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	refresh time.Duration
	limit   rate.Limit
	burst   int
	listen  listenFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	subs        map[store.SubscriptionID]*subscription
	nextID      store.SubscriptionID
	listenStart sync.Once
	closed      bool
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshInterval makes every subscription refetch periodically even
// without notifications. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Store) {
		s.refresh = d
	}
}

// WithRefetchRate bounds how often a single subscription may query the table.
func WithRefetchRate(limit rate.Limit, burst int) Option {
	return func(s *Store) {
		s.limit = limit
		if burst > 0 {
			s.burst = burst
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:     db,
		logger: logger.Discard(),
		limit:  rate.Limit(10),
		burst:  1,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[store.SubscriptionID]*subscription),
	}
	s.listen = s.listenPostgres
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the listener and every subscription.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	subs := s.subs
	s.subs = make(map[store.SubscriptionID]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Store) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) (store.SubscriptionID, error) {
	if q.Collection == "" {
		return 0, errors.New("query collection is required")
	}
	if onSnapshot == nil {
		return 0, errors.New("snapshot callback is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errors.New("store is closed")
	}
	s.nextID++
	sub := newSubscription(s.ctx, s.nextID, q, onSnapshot, onError, rate.NewLimiter(s.limit, s.burst))
	s.subs[sub.id] = sub
	s.wg.Add(1)
	s.mu.Unlock()

	s.listenStart.Do(func() {
		s.wg.Add(1)
		go s.runListener()
	})
	go s.runSubscription(sub)

	s.logger.Debug("subscription started", slog.Uint64("id", uint64(sub.id)), slog.String("collection", q.Collection))
	return sub.id, nil
}

func (s *Store) Unsubscribe(id store.SubscriptionID) {
	s.mu.Lock()
	sub, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()

	if ok {
		sub.cancel()
	}
}

func (s *Store) ReadOnce(ctx context.Context, path string) (store.Snapshot, error) {
	p, err := store.ParsePath(path)
	if err != nil {
		return store.Snapshot{}, err
	}

	if p.IsCollection() {
		return s.querySnapshot(ctx, store.CollectionQuery(p.Collection))
	}

	snap := store.Snapshot{Path: p.String()}
	var raw []byte
	if p.IsField() {
		err = s.db.QueryRowContext(ctx, selectFieldQuery, p.Collection, p.Key, p.Field).Scan(&raw)
	} else {
		err = s.db.QueryRowContext(ctx, selectRecordQuery, p.Collection, p.Key).Scan(&raw)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if raw == nil {
		return snap, nil
	}

	snap.Exists = true
	snap.Value = json.RawMessage(raw)
	return snap, nil
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	p, err := store.ParsePath(path)
	if err != nil {
		return err
	}
	if p.IsCollection() {
		return fmt.Errorf("cannot write collection %q", path)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", path, err)
	}
	remove := string(raw) == "null"
	if !p.IsField() && !remove && !isObject(raw) {
		return fmt.Errorf("record %s must be a JSON object", path)
	}

	return s.inTx(ctx, p.Collection, func(tx *sql.Tx) error {
		var err error
		switch {
		case p.IsField() && remove:
			_, err = tx.ExecContext(ctx, deleteFieldQuery, p.Collection, p.Key, p.Field)
		case p.IsField():
			_, err = tx.ExecContext(ctx, upsertFieldQuery, p.Collection, p.Key, p.Field, string(raw))
		case remove:
			_, err = tx.ExecContext(ctx, deleteRecordQuery, p.Collection, p.Key)
		default:
			_, err = tx.ExecContext(ctx, upsertRecordQuery, p.Collection, p.Key, string(raw))
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
}

func (s *Store) AddToSet(ctx context.Context, path string, element string) error {
	return s.setOp(ctx, path, element, addToSetQuery)
}

func (s *Store) RemoveFromSet(ctx context.Context, path string, element string) error {
	return s.setOp(ctx, path, element, removeFromSetQuery)
}

func (s *Store) setOp(ctx context.Context, path, element, query string) error {
	p, err := store.ParsePath(path)
	if err != nil {
		return err
	}
	if !p.IsField() {
		return fmt.Errorf("set operations need a field path, got %q", path)
	}

	return s.inTx(ctx, p.Collection, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, p.Collection, p.Key, p.Field, element); err != nil {
			return fmt.Errorf("failed to update set %s: %w", path, err)
		}
		return nil
	})
}

// NewKey returns a UUIDv7, so keys of one collection sort by creation time.
func (s *Store) NewKey(collection string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) inTx(ctx context.Context, collection string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, notifyQuery, NotifyChannel, collection); err != nil {
		return fmt.Errorf("failed to notify %s: %w", collection, err)
	}
	return tx.Commit()
}

func (s *Store) querySnapshot(ctx context.Context, q store.Query) (store.Snapshot, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q.IsFiltered() {
		rows, err = s.db.QueryContext(ctx, selectFilteredQuery, q.Collection, q.Field, q.Value)
	} else {
		rows, err = s.db.QueryContext(ctx, selectCollectionQuery, q.Collection)
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	snap := store.Snapshot{Path: q.Collection}
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return store.Snapshot{}, fmt.Errorf("failed to scan %s: %w", q.Collection, err)
		}
		snap.Children = append(snap.Children, store.Child{Key: key, Value: json.RawMessage(raw)})
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to iterate %s: %w", q.Collection, err)
	}
	snap.Exists = len(snap.Children) > 0
	return snap, nil
}

func isObject(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
