package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/vidproxy/internal/analytics"
	"github.com/serroba/vidproxy/internal/handlers"
	"github.com/serroba/vidproxy/internal/kv"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/serroba/vidproxy/internal/middleware"
	"github.com/serroba/vidproxy/internal/proxy"
	"github.com/serroba/vidproxy/internal/shortlink"
	"github.com/serroba/vidproxy/internal/store"
	"github.com/serroba/vidproxy/internal/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, kv.Key) (string, error) {
	return "", errMock
}

func (failingStore) Set(context.Context, kv.Key, string) error {
	return errMock
}

func (failingStore) SetIfAbsent(context.Context, kv.Key, string) (bool, error) {
	return false, errMock
}

func (failingStore) Ping(context.Context) error {
	return errMock
}

// recorder collects published events.
type recorder[T any] struct {
	mu     sync.Mutex
	events []*T
}

func (r *recorder[T]) publish(_ context.Context, event *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return nil
}

func (r *recorder[T]) all() []*T {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*T(nil), r.events...)
}

type testEnv struct {
	api      humatest.TestAPI
	store    kv.Store
	tokens   *token.Registry
	links    *shortlink.Registry
	created  *recorder[analytics.LinkCreatedEvent]
	accessed *recorder[analytics.LinkAccessedEvent]
}

type envOption func(*envConfig)

type envConfig struct {
	store         kv.Store
	httpClient    *http.Client
	publishFailed bool
}

func withStore(s kv.Store) envOption {
	return func(c *envConfig) { c.store = s }
}

// withOrigin trusts the TLS certificate of a test origin server.
func withOrigin(srv *httptest.Server) envOption {
	return func(c *envConfig) {
		client := proxy.NewHTTPClient(time.Second)
		client.Transport.(*http.Transport).TLSClientConfig = srv.Client().Transport.(*http.Transport).TLSClientConfig
		c.httpClient = client
	}
}

func withFailingPublisher() envOption {
	return func(c *envConfig) { c.publishFailed = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &envConfig{
		store:      store.NewMemoryStore(),
		httpClient: proxy.NewHTTPClient(time.Second),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	tokenGen, err := token.NewGenerator(token.DefaultLength)
	require.NoError(t, err)

	hashGen, err := shortlink.NewHashGenerator(shortlink.DefaultLength)
	require.NoError(t, err)

	env := &testEnv{
		store:    cfg.store,
		tokens:   token.NewRegistry(cfg.store, tokenGen),
		links:    shortlink.NewRegistry(cfg.store, hashGen),
		created:  &recorder[analytics.LinkCreatedEvent]{},
		accessed: &recorder[analytics.LinkAccessedEvent]{},
	}

	publishCreated := messaging.Publish[analytics.LinkCreatedEvent](env.created.publish)
	publishAccessed := messaging.Publish[analytics.LinkAccessedEvent](env.accessed.publish)

	if cfg.publishFailed {
		publishCreated = func(context.Context, *analytics.LinkCreatedEvent) error { return errMock }
		publishAccessed = func(context.Context, *analytics.LinkAccessedEvent) error { return errMock }
	}

	logger := zap.NewNop()

	_, api := humatest.New(t)
	api.UseMiddleware(middleware.RequestMeta(api, ""))

	handlers.RegisterRoutes(api, handlers.Handlers{
		Tokens: handlers.NewTokenHandler(env.tokens, publishCreated, logger),
		Links:  handlers.NewShortLinkHandler(env.links, publishCreated, publishAccessed, logger),
		Video:  handlers.NewVideoHandler(env.tokens, proxy.NewClient(cfg.httpClient), publishAccessed, logger),
	})

	env.api = api

	return env
}
