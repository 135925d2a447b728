// Package memory provides an in-memory RemoteStore used by tests and by
// `serve --memory`. Notifications are delivered synchronously on the writing
// goroutine, in write order, and never re-entrantly for the same subscription.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

var (
	_ store.RemoteStore = (*Store)(nil)
	_ store.SetWriter   = (*Store)(nil)
)

// WriteRecord is one accepted write, kept for inspection in tests.
type WriteRecord struct {
	Path  string
	Value json.RawMessage
}

type collection struct {
	keys []string
	docs map[string]map[string]json.RawMessage
}

type fault struct {
	err   error
	times int
}

func (f *fault) take() error {
	if f.err == nil || f.times == 0 {
		return nil
	}
	if f.times > 0 {
		f.times--
	}
	return f.err
}

type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	subs        map[store.SubscriptionID]*subscription
	nextSubID   store.SubscriptionID
	writes      []WriteRecord
	reads       int
	writeFault  fault
	readFault   fault
}

func New() *Store {
	return &Store{
		collections: make(map[string]*collection),
		subs:        make(map[store.SubscriptionID]*subscription),
	}
}

// FailWrites makes the next times writes fail with err. A negative times fails
// every write until FailWrites(nil, 0) is called.
func (s *Store) FailWrites(err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFault = fault{err: err, times: times}
}

func (s *Store) FailReads(err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFault = fault{err: err, times: times}
}

// EmitError reports err to every subscription on collection, as a broken
// connection would.
func (s *Store) EmitError(collectionName string, err error) {
	s.mu.Lock()
	var targets []*subscription
	for _, sub := range s.subs {
		if sub.query.Collection == collectionName {
			sub.enqueue(delivery{err: err})
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.drain()
	}
}

// Writes returns every accepted write in order.
func (s *Store) Writes() []WriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WriteRecord(nil), s.writes...)
}

// Reads returns the number of ReadOnce calls, including failed ones.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Store) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) (store.SubscriptionID, error) {
	if q.Collection == "" {
		return 0, errors.New("query collection is required")
	}
	if onSnapshot == nil {
		return 0, errors.New("snapshot callback is required")
	}

	s.mu.Lock()
	s.nextSubID++
	sub := &subscription{
		id:         s.nextSubID,
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		active:     true,
	}
	s.subs[sub.id] = sub
	sub.enqueue(delivery{snapshot: s.querySnapshotLocked(q)})
	s.mu.Unlock()

	sub.drain()
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

// Subscriptions returns the number of active listeners.
func (s *Store) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) ReadOnce(ctx context.Context, path string) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	p, err := store.ParsePath(path)
	if err != nil {
		return store.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if err := s.readFault.take(); err != nil {
		return store.Snapshot{}, err
	}

	if p.IsCollection() {
		return s.querySnapshotLocked(store.CollectionQuery(p.Collection)), nil
	}

	snap := store.Snapshot{Path: p.String()}
	doc, ok := s.docLocked(p.Collection, p.Key)
	if !ok {
		return snap, nil
	}
	if p.IsField() {
		value, ok := doc[p.Field]
		if !ok {
			return snap, nil
		}
		snap.Exists = true
		snap.Value = append(json.RawMessage(nil), value...)
		return snap, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap.Exists = true
	snap.Value = raw
	return snap, nil
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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

	s.mu.Lock()
	if err := s.writeFault.take(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.applyLocked(p, raw); err != nil {
		s.mu.Unlock()
		return err
	}
	targets := s.notifyLocked(p.Collection)
	s.mu.Unlock()

	for _, sub := range targets {
		sub.drain()
	}
	return nil
}

func (s *Store) AddToSet(ctx context.Context, path string, element string) error {
	return s.mutateSet(ctx, path, func(members []string) []string {
		for _, m := range members {
			if m == element {
				return members
			}
		}
		return append(members, element)
	})
}

func (s *Store) RemoveFromSet(ctx context.Context, path string, element string) error {
	return s.mutateSet(ctx, path, func(members []string) []string {
		out := members[:0]
		for _, m := range members {
			if m != element {
				out = append(out, m)
			}
		}
		return out
	})
}

func (s *Store) mutateSet(ctx context.Context, path string, apply func([]string) []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := store.ParsePath(path)
	if err != nil {
		return err
	}
	if !p.IsField() {
		return fmt.Errorf("set operations need a field path, got %q", path)
	}

	s.mu.Lock()
	if err := s.writeFault.take(); err != nil {
		s.mu.Unlock()
		return err
	}

	members := []string{}
	if doc, ok := s.docLocked(p.Collection, p.Key); ok {
		if current, ok := doc[p.Field]; ok {
			if err := json.Unmarshal(current, &members); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("field %s is not a string array: %w", path, err)
			}
		}
	}
	raw, err := json.Marshal(apply(members))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.applyLocked(p, raw); err != nil {
		s.mu.Unlock()
		return err
	}
	targets := s.notifyLocked(p.Collection)
	s.mu.Unlock()

	for _, sub := range targets {
		sub.drain()
	}
	return nil
}

func (s *Store) NewKey(collectionName string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) applyLocked(p store.Path, raw json.RawMessage) error {
	s.writes = append(s.writes, WriteRecord{Path: p.String(), Value: raw})

	c, ok := s.collections[p.Collection]
	if !ok {
		c = &collection{docs: make(map[string]map[string]json.RawMessage)}
		s.collections[p.Collection] = c
	}
	doc, exists := c.docs[p.Key]

	if !p.IsField() {
		if string(raw) == "null" {
			c.remove(p.Key)
			return nil
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("record %s must be a JSON object: %w", p, err)
		}
		if !exists {
			c.keys = append(c.keys, p.Key)
		}
		c.docs[p.Key] = fields
		return nil
	}

	if string(raw) == "null" {
		if exists {
			delete(doc, p.Field)
		}
		return nil
	}
	if !exists {
		doc = make(map[string]json.RawMessage)
		c.docs[p.Key] = doc
		c.keys = append(c.keys, p.Key)
	}
	doc[p.Field] = raw
	return nil
}

func (s *Store) docLocked(collectionName, key string) (map[string]json.RawMessage, bool) {
	c, ok := s.collections[collectionName]
	if !ok {
		return nil, false
	}
	doc, ok := c.docs[key]
	return doc, ok
}

func (s *Store) querySnapshotLocked(q store.Query) store.Snapshot {
	snap := store.Snapshot{Path: q.Collection}
	c, ok := s.collections[q.Collection]
	if !ok {
		return snap
	}
	for _, key := range c.keys {
		raw, err := json.Marshal(c.docs[key])
		if err != nil {
			continue
		}
		if !q.Matches(raw) {
			continue
		}
		snap.Children = append(snap.Children, store.Child{Key: key, Value: raw})
	}
	snap.Exists = len(snap.Children) > 0
	return snap
}

func (s *Store) notifyLocked(collectionName string) []*subscription {
	var targets []*subscription
	for _, sub := range s.subs {
		if sub.query.Collection != collectionName {
			continue
		}
		sub.enqueue(delivery{snapshot: s.querySnapshotLocked(sub.query)})
		targets = append(targets, sub)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	return targets
}

func (c *collection) remove(key string) {
	if _, ok := c.docs[key]; !ok {
		return
	}
	delete(c.docs, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return
		}
	}
}
