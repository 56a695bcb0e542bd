package analytics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/vidproxy/internal/analytics"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu       sync.Mutex
	created  []*analytics.LinkCreatedEvent
	accessed []*analytics.LinkAccessedEvent
}

func (r *recordingStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.created = append(r.created, event)

	return nil
}

func (r *recordingStore) SaveLinkAccessed(_ context.Context, event *analytics.LinkAccessedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accessed = append(r.accessed, event)

	return nil
}

func (r *recordingStore) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.created), len(r.accessed)
}

func TestPipeline_GoChannel(t *testing.T) {
	logger := zap.NewNop()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, messaging.NewZapLogger(logger))
	store := &recordingStore{}

	group := messaging.NewConsumerGroup(pubSub, logger)
	group.Add(messaging.NewConsumer(pubSub, analytics.TopicLinkCreated, store.SaveLinkCreated, logger))
	group.Add(messaging.NewConsumer(pubSub, analytics.TopicLinkAccessed, store.SaveLinkAccessed, logger))

	require.NoError(t, group.Start(context.Background()))

	publishCreated := messaging.NewPublishFunc[analytics.LinkCreatedEvent](pubSub, analytics.TopicLinkCreated)
	publishAccessed := messaging.NewPublishFunc[analytics.LinkAccessedEvent](pubSub, analytics.TopicLinkAccessed)

	err := publishCreated(context.Background(), &analytics.LinkCreatedEvent{
		Kind:      analytics.KindShort,
		ID:        "abc12345",
		Target:    "https://example.com/video?token=abc",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	err = publishAccessed(context.Background(), &analytics.LinkAccessedEvent{
		Kind:       analytics.KindToken,
		ID:         "0123456789abcdef",
		AccessedAt: time.Now(),
		Status:     206,
		Range:      "bytes=0-99",
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		created, accessed := store.counts()

		return created == 1 && accessed == 1
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	assert.Equal(t, "abc12345", store.created[0].ID)
	assert.Equal(t, analytics.KindShort, store.created[0].Kind)
	assert.Equal(t, 206, store.accessed[0].Status)
	assert.Equal(t, "bytes=0-99", store.accessed[0].Range)
	store.mu.Unlock()

	require.NoError(t, group.Shutdown())
}
