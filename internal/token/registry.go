package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/vidproxy/internal/kv"
)

// Registry issues tokens for origin URLs and resolves them back.
// It also keeps the allow-list used by direct links (/video?src=).
type Registry struct {
	store    kv.Store
	generate Generator
}

// NewRegistry creates a new token registry.
func NewRegistry(store kv.Store, generate Generator) *Registry {
	return &Registry{
		store:    store,
		generate: generate,
	}
}

// Issue validates src and maps a new token to it.
// Invalid input never reaches the store.
func (r *Registry) Issue(ctx context.Context, src string) (Token, error) {
	if err := ValidateOrigin(src); err != nil {
		return "", err
	}

	id, err := kv.Claim(ctx, r.store, kv.NamespaceToken, r.generate, src, kv.DefaultClaimAttempts)
	if err != nil {
		return "", err
	}

	return Token(id), nil
}

// Resolve returns the origin URL for tok.
// Missing and unknown tokens both yield ErrForbidden.
func (r *Registry) Resolve(ctx context.Context, tok string) (string, error) {
	if tok == "" {
		return "", ErrForbidden
	}

	src, err := r.store.Get(ctx, kv.NewKey(kv.NamespaceToken, tok))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrForbidden
		}

		return "", fmt.Errorf("resolve token: %w", err)
	}

	if src == "" {
		return "", ErrForbidden
	}

	return src, nil
}

// Allow records src on the direct-link allow-list.
func (r *Registry) Allow(ctx context.Context, src string) error {
	if err := ValidateOrigin(src); err != nil {
		return err
	}

	if err := r.store.Set(ctx, kv.NewKey(kv.NamespaceLink, src), src); err != nil {
		return fmt.Errorf("allow link: %w", err)
	}

	return nil
}

// Allowed reports whether src may be proxied directly.
// It returns ErrInvalidURL for malformed input and ErrForbidden when src is not allow-listed.
func (r *Registry) Allowed(ctx context.Context, src string) error {
	if err := ValidateOrigin(src); err != nil {
		return err
	}

	_, err := r.store.Get(ctx, kv.NewKey(kv.NamespaceLink, src))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrForbidden
		}

		return fmt.Errorf("check link: %w", err)
	}

	return nil
}
