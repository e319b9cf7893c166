package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "flipscan/arbworker/pkg/errors"
)

// scriptedClient fails a fixed number of times before succeeding.
type scriptedClient struct {
	failures int
	status   int
	body     string
	calls    int
}

func (c *scriptedClient) Fetch(ctx context.Context, targetURL string, opts Options) ([]byte, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, &StatusError{Status: c.status}
	}
	return []byte(c.body), nil
}

// fakeCache records sets and serves gets from a map.
type fakeCache struct {
	data map[string][]byte
	sets map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte), sets: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (c *fakeCache) Set(key string, value []byte, expiration time.Duration) error {
	c.data[key] = value
	c.sets[key] = expiration
	return nil
}

func (c *fakeCache) Delete(key string) error {
	delete(c.data, key)
	return nil
}

func TestFetchFirstAttemptSucceeds(t *testing.T) {
	client := &scriptedClient{body: "<html>ok</html>"}
	f := NewRetryingFetcher(client, 3, time.Millisecond, time.Minute, nil)

	body, err := f.Fetch(context.Background(), "https://www.depop.com/search", Options{})
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, 1, client.calls)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	client := &scriptedClient{failures: 2, status: http.StatusInternalServerError, body: "<html>ok</html>"}
	f := NewRetryingFetcher(client, 3, time.Millisecond, time.Minute, nil)

	body, err := f.Fetch(context.Background(), "https://www.depop.com/search", Options{})
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, 3, client.calls)
}

func TestFetchExhaustsAttempts(t *testing.T) {
	client := &scriptedClient{failures: 10, status: http.StatusBadGateway}
	f := NewRetryingFetcher(client, 3, time.Millisecond, time.Minute, nil)

	_, err := f.Fetch(context.Background(), "https://www.depop.com/search", Options{})
	require.Error(t, err)
	assert.Equal(t, 3, client.calls)

	var fetchErr *apperr.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.Status)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.True(t, apperr.IsFetchExhausted(err))
}

func TestFetchRateLimitSetsCooldown(t *testing.T) {
	cache := newFakeCache()
	client := &scriptedClient{failures: 10, status: http.StatusTooManyRequests}
	f := NewRetryingFetcher(client, 2, time.Millisecond, 5*time.Minute, cache)

	_, err := f.Fetch(context.Background(), "https://www.ebay.com/sch/i.html", Options{})
	require.Error(t, err)

	expiration, ok := cache.sets["fetch_cooldown:www.ebay.com"]
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, expiration)

	// The cooldown marker now short-circuits before any request is made.
	calls := client.calls
	_, err = f.Fetch(context.Background(), "https://www.ebay.com/sch/i.html", Options{})
	require.Error(t, err)
	assert.Equal(t, calls, client.calls)

	var workerErr *apperr.WorkerError
	require.True(t, errors.As(err, &workerErr))
	assert.Equal(t, apperr.ErrorTypeRateLimit, workerErr.Type)
}

func TestFetchCooldownIsPerHost(t *testing.T) {
	cache := newFakeCache()
	cache.Set("fetch_cooldown:www.ebay.com", []byte("300"), 5*time.Minute)
	client := &scriptedClient{body: "<html>ok</html>"}
	f := NewRetryingFetcher(client, 3, time.Millisecond, 5*time.Minute, cache)

	// Another host is unaffected by the eBay cooldown.
	_, err := f.Fetch(context.Background(), "https://www.depop.com/search", Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestFetchHonorsContextDuringBackoff(t *testing.T) {
	client := &scriptedClient{failures: 10, status: http.StatusInternalServerError}
	f := NewRetryingFetcher(client, 3, time.Hour, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, "https://www.depop.com/search", Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, client.calls)
}

func TestProxyClientRequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>body</html>"))
	}))
	defer srv.Close()

	client := NewProxyClient("test-key", srv.URL, 0)
	body, err := client.Fetch(context.Background(), "https://www.depop.com/search?q=jacket", Options{
		RenderJS: true,
		WaitMS:   3000,
	})
	require.NoError(t, err)
	assert.Equal(t, "<html>body</html>", string(body))

	require.NotNil(t, got)
	q := got.URL.Query()
	assert.Equal(t, "test-key", q.Get("api_key"))
	assert.Equal(t, "https://www.depop.com/search?q=jacket", q.Get("url"))
	assert.Equal(t, "true", q.Get("render_js"))
	assert.Equal(t, "3000", q.Get("wait"))
	assert.Empty(t, q.Get("premium_proxy"))
	assert.Empty(t, q.Get("stealth_proxy"))
}

func TestProxyClientProxyFlags(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewProxyClient("test-key", srv.URL, 0)
	_, err := client.Fetch(context.Background(), "https://www.ebay.com/sch/i.html", Options{
		PremiumProxy: true,
		StealthProxy: true,
	})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "false", q.Get("render_js"))
	assert.Equal(t, "true", q.Get("premium_proxy"))
	assert.Equal(t, "true", q.Get("stealth_proxy"))
	assert.Empty(t, q.Get("wait"))
}

func TestProxyClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewProxyClient("test-key", srv.URL, 0)
	_, err := client.Fetch(context.Background(), "https://www.ebay.com/sch/i.html", Options{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Status)
}

func TestToUTF8(t *testing.T) {
	// EUC-KR encoded "안녕" with a declaring content type.
	eucKR := []byte{0xbe, 0xc8, 0xb3, 0xe7}
	out, err := toUTF8(eucKR, "text/html; charset=euc-kr")
	require.NoError(t, err)
	assert.Equal(t, "안녕", string(out))

	plain := []byte("<html>plain ascii</html>")
	out, err = toUTF8(plain, "text/html; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}
