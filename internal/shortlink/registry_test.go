package shortlink_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/serroba/vidproxy/internal/kv"
	"github.com/serroba/vidproxy/internal/shortlink"
	"github.com/serroba/vidproxy/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMock = errors.New("mock error")

type mockStore struct {
	err error
}

func (m *mockStore) Get(_ context.Context, _ kv.Key) (string, error) { return "", m.err }
func (m *mockStore) Set(_ context.Context, _ kv.Key, _ string) error { return m.err }
func (m *mockStore) Ping(_ context.Context) error                    { return m.err }

func (m *mockStore) SetIfAbsent(_ context.Context, _ kv.Key, _ string) (bool, error) {
	return false, m.err
}

func newRegistry(t *testing.T, s kv.Store) *shortlink.Registry {
	t.Helper()

	gen, err := shortlink.NewHashGenerator(shortlink.DefaultLength)
	require.NoError(t, err)

	return shortlink.NewRegistry(s, gen)
}

func TestRegistry_Shorten(t *testing.T) {
	ctx := context.Background()

	t.Run("shorten then resolve round-trips", func(t *testing.T) {
		registry := newRegistry(t, store.NewMemoryStore())

		targets := []string{
			"https://host/video?token=abc",
			"not even a url",
			"/video?src=https%3A%2F%2Fexample.com%2Fa.mp4",
		}

		for _, target := range targets {
			hash, err := registry.Shorten(ctx, target)
			require.NoError(t, err)
			assert.Len(t, string(hash), shortlink.DefaultLength)

			got, err := registry.Resolve(ctx, string(hash))
			require.NoError(t, err)
			assert.Equal(t, target, got)
		}
	})

	t.Run("rejects empty target", func(t *testing.T) {
		s := store.NewMemoryStore()
		registry := newRegistry(t, s)

		hash, err := registry.Shorten(ctx, "")

		assert.Empty(t, hash)
		assert.ErrorIs(t, err, shortlink.ErrEmptyTarget)
		assert.Zero(t, s.Len())
	})

	t.Run("skips hashes already in use", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Set(ctx, kv.NewKey(kv.NamespaceShort, "AAAAAAAA"), "https://first.com")

		candidates := []string{"AAAAAAAA", "BBBBBBBB"}
		i := 0
		registry := shortlink.NewRegistry(s, func() string {
			c := candidates[i]
			i++

			return c
		})

		hash, err := registry.Shorten(ctx, "https://second.com")

		require.NoError(t, err)
		assert.Equal(t, shortlink.Hash("BBBBBBBB"), hash)

		first, _ := registry.Resolve(ctx, "AAAAAAAA")
		assert.Equal(t, "https://first.com", first)
	})

	t.Run("fails when every candidate collides", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Set(ctx, kv.NewKey(kv.NamespaceShort, "AAAAAAAA"), "https://first.com")
		registry := shortlink.NewRegistry(s, func() string { return "AAAAAAAA" })

		_, err := registry.Shorten(ctx, "https://second.com")

		assert.ErrorIs(t, err, kv.ErrExhausted)
	})

	t.Run("concurrent shortens never share a hash", func(t *testing.T) {
		s := store.NewMemoryStore()

		// A tiny candidate space forces collisions between goroutines.
		var (
			mu   sync.Mutex
			next int
		)
		pool := []string{"h0000000", "h1111111", "h2222222", "h3333333"}
		registry := shortlink.NewRegistry(s, func() string {
			mu.Lock()
			defer mu.Unlock()

			c := pool[next%len(pool)]
			next++

			return c
		})

		type result struct {
			hash   shortlink.Hash
			target string
			err    error
		}

		results := make(chan result, len(pool))

		var wg sync.WaitGroup

		for i := range len(pool) {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				target := "https://example.com/" + string(rune('a'+i))
				hash, err := registry.Shorten(ctx, target)
				results <- result{hash: hash, target: target, err: err}
			}(i)
		}

		wg.Wait()
		close(results)

		owners := make(map[shortlink.Hash]string)

		for r := range results {
			if r.err != nil {
				continue
			}

			prev, dup := owners[r.hash]
			assert.False(t, dup, "hash %s issued to %q and %q", r.hash, prev, r.target)
			owners[r.hash] = r.target

			got, err := registry.Resolve(ctx, string(r.hash))
			require.NoError(t, err)
			assert.Equal(t, r.target, got)
		}

		assert.NotEmpty(t, owners)
	})

	t.Run("returns store errors", func(t *testing.T) {
		registry := newRegistry(t, &mockStore{err: errMock})

		_, err := registry.Shorten(ctx, "https://example.com")

		assert.ErrorIs(t, err, errMock)
	})
}

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown hash is not found", func(t *testing.T) {
		registry := newRegistry(t, store.NewMemoryStore())

		for _, hash := range []string{"", "nothere1"} {
			_, err := registry.Resolve(ctx, hash)

			assert.ErrorIs(t, err, shortlink.ErrNotFound)
		}
	})

	t.Run("backend failure is not reported as not found", func(t *testing.T) {
		registry := newRegistry(t, &mockStore{err: errMock})

		_, err := registry.Resolve(ctx, "abc12345")

		require.ErrorIs(t, err, errMock)
		assert.NotErrorIs(t, err, shortlink.ErrNotFound)
	})
}

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "absolute", baseURL: "https://proxy.example.com", want: "https://proxy.example.com/s/abc12345"},
		{name: "trailing slash", baseURL: "http://localhost:8888/", want: "http://localhost:8888/s/abc12345"},
		{name: "no host information", baseURL: "", want: "/s/abc12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shortlink.URL(tt.baseURL, "abc12345"))
		})
	}
}

func TestNewHashGenerator(t *testing.T) {
	gen, err := shortlink.NewHashGenerator(shortlink.DefaultLength)
	require.NoError(t, err)

	assert.Len(t, gen(), shortlink.DefaultLength)
	assert.NotEqual(t, gen(), gen())
}
