// Package store defines the remote key-value tree the sync core consumes.
package store

import (
	"context"
	"encoding/json"
)

// SubscriptionID identifies a continuous listener registered with Subscribe.
type SubscriptionID uint64

// Query selects the children of a collection. When Field is empty the whole
// collection is selected, otherwise only children whose Field equals Value.
type Query struct {
	Collection string
	Field      string
	Value      string
}

func CollectionQuery(collection string) Query {
	return Query{Collection: collection}
}

// EqualityQuery is an exact-match query, not a range query.
func EqualityQuery(collection, field, value string) Query {
	return Query{Collection: collection, Field: field, Value: value}
}

func (q Query) IsFiltered() bool {
	return q.Field != ""
}

// Matches reports whether a child record satisfies the query. Records that are
// not JSON objects or whose field is not a string never match a filtered query.
func (q Query) Matches(raw json.RawMessage) bool {
	if !q.IsFiltered() {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	var v string
	if err := json.Unmarshal(fields[q.Field], &v); err != nil {
		return false
	}
	return v == q.Value
}

// Child is one entry of a collection snapshot.
type Child struct {
	Key   string
	Value json.RawMessage
}

// Snapshot is a full delivery of a path's current state. Collection reads fill
// Children in the store's iteration order; record and field reads fill Value.
type Snapshot struct {
	Path     string
	Exists   bool
	Value    json.RawMessage
	Children []Child
}

type RemoteStore interface {
	// Subscribe registers a continuous listener. Every notification carries the
	// full current state of the query.
	Subscribe(q Query, onSnapshot func(Snapshot), onError func(error)) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID)
	ReadOnce(ctx context.Context, path string) (Snapshot, error)
	// Write replaces the value at path. value is marshalled as JSON.
	Write(ctx context.Context, path string, value any) error
	// NewKey generates a unique child key for collection.
	NewKey(collection string) (string, error)
}

// SetWriter is implemented by stores that can add or remove a string element of
// an array field server-side, without a read-modify-write cycle.
type SetWriter interface {
	AddToSet(ctx context.Context, path string, element string) error
	RemoveFromSet(ctx context.Context, path string, element string) error
}
