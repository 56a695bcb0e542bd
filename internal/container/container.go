package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/vidproxy/internal/analytics"
	analyticsstore "github.com/serroba/vidproxy/internal/analytics/store"
	"github.com/serroba/vidproxy/internal/handlers"
	"github.com/serroba/vidproxy/internal/health"
	"github.com/serroba/vidproxy/internal/kv"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/serroba/vidproxy/internal/middleware"
	"github.com/serroba/vidproxy/internal/proxy"
	"github.com/serroba/vidproxy/internal/shortlink"
	"github.com/serroba/vidproxy/internal/store"
	"github.com/serroba/vidproxy/internal/token"
	"go.uber.org/zap"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Analytics transports.
const (
	AnalyticsOff    = "off"
	AnalyticsMemory = "memory"
	AnalyticsRedis  = "redis"
)

const consumerGroupName = "vidproxy-analytics"

type Options struct {
	Port            int    `default:"8888"                                      help:"Port to listen on"                                       short:"p"`
	BaseURL         string `default:""                                          help:"Public base URL for short links (derived from requests when empty)"`
	Store           string `default:"memory"                                    help:"Key-value backend: memory, redis or postgres"            short:"s"`
	RedisAddr       string `default:"localhost:6379"                            help:"Redis server address"                                    short:"r"`
	DatabaseURL     string `default:"postgres://localhost:5432/vidproxy"        help:"PostgreSQL connection string"                            short:"d"`
	CacheTTL        int    `default:"0"                                         help:"Seconds to cache postgres lookups in Redis (0 disables)"`
	TokenLength     int    `default:"16"                                        help:"Length of generated video tokens"                        short:"t"`
	CodeLength      int    `default:"8"                                         help:"Length of generated short link hashes"                   short:"c"`
	UpstreamTimeout int    `default:"30"                                        help:"Seconds to wait for origin response headers"`
	LogFormat       string `default:"console"                                   help:"Log format: console or json"`
	Analytics       string `default:"memory"                                    help:"Analytics transport: off, memory or redis"`
}

// RedisClient is the shared Redis connection, closed on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client. It only connects when something invokes it.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the PostgreSQL-backed store.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		pgStore := store.NewPostgresStore(pool)

		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		return pgStore, nil
	})
}

// StorePackage provides the kv.Store selected by Options.Store.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (kv.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StoreMemory:
			return store.NewMemoryStore(), nil
		case StoreRedis:
			return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		case StorePostgres:
			pgStore, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			if opts.CacheTTL <= 0 {
				return pgStore, nil
			}

			ttl := time.Duration(opts.CacheTTL) * time.Second

			return store.NewRedisCacheStore(pgStore, do.MustInvoke[*RedisClient](i).Client, ttl), nil
		default:
			return nil, fmt.Errorf("unknown store %q", opts.Store)
		}
	})
}

// RegistryPackage provides the token and short link registries.
func RegistryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*token.Registry, error) {
		opts := do.MustInvoke[*Options](i)

		gen, err := token.NewGenerator(opts.TokenLength)
		if err != nil {
			return nil, err
		}

		kvStore, err := do.Invoke[kv.Store](i)
		if err != nil {
			return nil, err
		}

		return token.NewRegistry(kvStore, gen), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortlink.Registry, error) {
		opts := do.MustInvoke[*Options](i)

		gen, err := shortlink.NewHashGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		kvStore, err := do.Invoke[kv.Store](i)
		if err != nil {
			return nil, err
		}

		return shortlink.NewRegistry(kvStore, gen), nil
	})
}

// ProxyPackage provides the upstream video client.
func ProxyPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*proxy.Client, error) {
		opts := do.MustInvoke[*Options](i)
		timeout := time.Duration(opts.UpstreamTimeout) * time.Second

		return proxy.NewClient(proxy.NewHTTPClient(timeout)), nil
	})
}

// MessagingPackage provides the watermill publisher and subscriber for Options.Analytics.
// The memory transport shares one in-process channel between both.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(gochannel.Config{}, messaging.NewZapLogger(logger)), nil
	})

	do.Provide(i, func(i *do.Injector) (message.Publisher, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Analytics {
		case AnalyticsMemory:
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		case AnalyticsRedis:
			return redisstream.NewPublisher(redisstream.PublisherConfig{
				Client:     do.MustInvoke[*RedisClient](i).Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			}, messaging.NewZapLogger(logger))
		default:
			return nil, fmt.Errorf("no publisher for analytics %q", opts.Analytics)
		}
	})

	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Analytics {
		case AnalyticsMemory:
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		case AnalyticsRedis:
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*RedisClient](i).Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: consumerGroupName,
			}, messaging.NewZapLogger(logger))
		default:
			return nil, fmt.Errorf("no subscriber for analytics %q", opts.Analytics)
		}
	})
}

// PublisherGroupPackage provides the typed analytics publish functions.
// With analytics off they discard every event.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := do.Invoke[message.Publisher](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		if do.MustInvoke[*Options](i).Analytics == AnalyticsOff {
			return messaging.Discard[analytics.LinkCreatedEvent](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[analytics.LinkCreatedEvent](group.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.LinkAccessedEvent], error) {
		if do.MustInvoke[*Options](i).Analytics == AnalyticsOff {
			return messaging.Discard[analytics.LinkAccessedEvent](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[analytics.LinkAccessedEvent](group.Publisher(), analytics.TopicLinkAccessed), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := do.Invoke[message.Subscriber](i)
		if err != nil {
			return nil, err
		}

		events := analyticsstore.NewNoop(logger.Named("analytics"))

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated, events.SaveLinkCreated, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkAccessed, events.SaveLinkAccessed, logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		publishCreated, err := do.Invoke[messaging.Publish[analytics.LinkCreatedEvent]](i)
		if err != nil {
			return nil, err
		}

		publishAccessed, err := do.Invoke[messaging.Publish[analytics.LinkAccessedEvent]](i)
		if err != nil {
			return nil, err
		}

		kvStore, err := do.Invoke[kv.Store](i)
		if err != nil {
			return nil, err
		}

		tokens, err := do.Invoke[*token.Registry](i)
		if err != nil {
			return nil, err
		}

		links, err := do.Invoke[*shortlink.Registry](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Video Proxy", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api, opts.BaseURL))

		handlers.RegisterRoutes(api, handlers.Handlers{
			Tokens: handlers.NewTokenHandler(tokens, publishCreated, logger),
			Links:  handlers.NewShortLinkHandler(links, publishCreated, publishAccessed, logger),
			Video:  handlers.NewVideoHandler(tokens, do.MustInvoke[*proxy.Client](i), publishAccessed, logger),
		})

		deps := []health.Dependency{{Name: "store", Checker: kvStore}}
		if opts.Analytics == AnalyticsRedis {
			deps = append(deps, health.Dependency{
				Name:    "analytics",
				Checker: health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client),
			})
		}

		health.RegisterRoutes(api, health.NewHandler(deps...))

		return api, nil
	})
}
