package analytics

import "context"

// Store persists link events delivered by the analytics consumers. Implementations
// must tolerate redelivery, since the redis stream transport is at-least-once.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkAccessed(ctx context.Context, event *LinkAccessedEvent) error
}
