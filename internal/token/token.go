package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SchemePrefix is the only origin URL prefix accepted for proxying.
const SchemePrefix = "https://"

// DefaultLength is the number of characters in a generated token.
const DefaultLength = 16

var (
	// ErrInvalidURL is returned for an empty origin URL or one without the https:// prefix.
	ErrInvalidURL = errors.New("src must be an https:// URL")

	// ErrForbidden is returned for any credential that does not resolve, whether it
	// was never issued or is simply wrong.
	ErrForbidden = errors.New("forbidden")
)

// Token is an opaque capability that resolves to one origin URL.
type Token string

// Generator produces random token candidates.
type Generator func() string

// NewGenerator returns a generator of random hex tokens with the given length,
// built from random UUIDs with their separators stripped.
func NewGenerator(length int) (Generator, error) {
	if length < 8 || length > 64 {
		return nil, fmt.Errorf("token length must be between 8 and 64, got %d", length)
	}

	return func() string {
		var b strings.Builder

		for b.Len() < length {
			b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
		}

		return b.String()[:length]
	}, nil
}

// ValidateOrigin checks that src can be registered for proxying.
func ValidateOrigin(src string) error {
	if src == "" || !strings.HasPrefix(src, SchemePrefix) {
		return ErrInvalidURL
	}

	return nil
}
