package kv

import (
	"context"
	"errors"
	"fmt"
)

// DefaultClaimAttempts bounds how many candidate identifiers Claim tries.
const DefaultClaimAttempts = 5

// ErrExhausted is returned when every candidate identifier was already taken.
var ErrExhausted = errors.New("no free identifier after max attempts")

// Claim stores value under a freshly generated identifier in namespace.
// Candidates that already exist are discarded and regenerated, so an existing
// mapping is never overwritten.
func Claim(
	ctx context.Context,
	store Store,
	namespace string,
	generate func() string,
	value string,
	attempts int,
) (string, error) {
	if attempts <= 0 {
		attempts = DefaultClaimAttempts
	}

	for range attempts {
		id := generate()

		claimed, err := store.SetIfAbsent(ctx, NewKey(namespace, id), value)
		if err != nil {
			return "", fmt.Errorf("claim %s: %w", namespace, err)
		}

		if claimed {
			return id, nil
		}
	}

	return "", fmt.Errorf("claim %s: %w", namespace, ErrExhausted)
}
