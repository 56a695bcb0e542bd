package store

import (
	"context"

	"github.com/serroba/vidproxy/internal/analytics"
	"go.uber.org/zap"
)

// visibleTokenChars is how much of a token is kept when it is logged.
const visibleTokenChars = 4

// Noop is an analytics.Store that only logs events. Origin URLs are never logged
// and tokens are truncated, since a token is enough to stream its video.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.String("kind", string(event.Kind)),
		zap.String("id", redact(event.Kind, event.ID)),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkAccessed(_ context.Context, event *analytics.LinkAccessedEvent) error {
	fields := []zap.Field{
		zap.String("kind", string(event.Kind)),
		zap.String("id", redact(event.Kind, event.ID)),
		zap.Int("status", event.Status),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	}

	if event.Range != "" {
		fields = append(fields, zap.String("range", event.Range))
	}

	n.logger.Info("link accessed event received", fields...)

	return nil
}

// redact hides credentials. Direct links are keyed by their origin URL, which is
// kept out of logs entirely.
func redact(kind analytics.LinkKind, id string) string {
	switch kind {
	case analytics.KindToken:
		if len(id) <= visibleTokenChars {
			return "****"
		}

		return id[:visibleTokenChars] + "****"
	case analytics.KindDirect:
		return ""
	default:
		return id
	}
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
