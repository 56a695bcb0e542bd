package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when no value exists for a key.
var ErrNotFound = errors.New("key not found")

// Namespaces used by the service.
const (
	NamespaceToken = "videoToken"
	NamespaceLink  = "videoLink"
	NamespaceShort = "short"
)

// Key is a composite key: a namespace and an identifier inside it.
type Key struct {
	Namespace string
	ID        string
}

// NewKey creates a key in the given namespace.
func NewKey(namespace, id string) Key {
	return Key{Namespace: namespace, ID: id}
}

// String returns the flattened "namespace:id" form used by string-keyed backends.
func (k Key) String() string {
	return k.Namespace + ":" + k.ID
}

// Store is a durable mapping from composite keys to string values.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error

	// SetIfAbsent stores value only when key has no value yet.
	// It reports whether this call claimed the key.
	SetIfAbsent(ctx context.Context, key Key, value string) (bool, error)

	Ping(ctx context.Context) error
}
