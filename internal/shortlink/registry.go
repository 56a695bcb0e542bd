package shortlink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jaevor/go-nanoid"
	"github.com/serroba/vidproxy/internal/kv"
)

// DefaultLength is the number of characters in a generated hash.
const DefaultLength = 8

// PathPrefix is the route prefix short links are served under.
const PathPrefix = "/s/"

var (
	ErrEmptyTarget = errors.New("url is required")
	ErrNotFound    = errors.New("short link not found")
)

// Hash identifies a short link.
type Hash string

// HashGenerator generates short link hash candidates.
type HashGenerator func() string

// NewHashGenerator returns a nanoid generator of the given length.
func NewHashGenerator(length int) (HashGenerator, error) {
	gen, err := nanoid.Standard(length)
	if err != nil {
		return nil, fmt.Errorf("short link generator: %w", err)
	}

	return HashGenerator(gen), nil
}

// Registry maps short hashes to arbitrary targets.
type Registry struct {
	store    kv.Store
	generate HashGenerator
}

// NewRegistry creates a new short link registry.
func NewRegistry(store kv.Store, generate HashGenerator) *Registry {
	return &Registry{
		store:    store,
		generate: generate,
	}
}

// Shorten stores target under a new hash. A hash already in use is never reused.
func (r *Registry) Shorten(ctx context.Context, target string) (Hash, error) {
	if target == "" {
		return "", ErrEmptyTarget
	}

	id, err := kv.Claim(ctx, r.store, kv.NamespaceShort, r.generate, target, kv.DefaultClaimAttempts)
	if err != nil {
		return "", err
	}

	return Hash(id), nil
}

// Resolve returns the target stored for hash.
func (r *Registry) Resolve(ctx context.Context, hash string) (string, error) {
	if hash == "" {
		return "", ErrNotFound
	}

	target, err := r.store.Get(ctx, kv.NewKey(kv.NamespaceShort, hash))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("resolve short link: %w", err)
	}

	return target, nil
}

// Path returns the request path serving hash.
func Path(hash Hash) string {
	return PathPrefix + string(hash)
}

// URL returns the absolute short URL for hash under baseURL ("scheme://host").
// An empty baseURL yields the path alone.
func URL(baseURL string, hash Hash) string {
	return strings.TrimSuffix(baseURL, "/") + Path(hash)
}
