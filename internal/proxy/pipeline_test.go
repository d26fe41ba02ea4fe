package proxy_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaywave/balance-proxy/internal/keypool"
	"github.com/relaywave/balance-proxy/internal/proxy"
	"github.com/relaywave/balance-proxy/internal/status"
)

func newTestHandler(t *testing.T, upstream *httptest.Server, keys []string) *proxy.Handler {
	t.Helper()
	return &proxy.Handler{
		Provider:        "firecrawl",
		ProxyToken:      "local-token",
		UpstreamBaseURL: upstream.URL,
		KeyManager:      keypool.NewRoundRobinManager(keys, 60),
		HTTPClient:      upstream.Client(),
		Logs:            status.NewLogRing(),
		Logger:          zerolog.New(io.Discard),
	}
}

func authedRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer local-token")
	return req
}

// S1: an authorized request with a healthy upstream succeeds on the first key.
func TestRelay_SuccessfulFirstAttempt(t *testing.T) {
	t.Parallel()

	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	req := authedRequest(t, "http://proxy.local/v1/scrape")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1/scrape")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer key-1", gotAuth)
	assert.Equal(t, "1", rec.Header().Get(proxy.HeaderKeyIndex))
	assert.Equal(t, "0", rec.Header().Get(proxy.HeaderRetryCount))
	assert.Equal(t, "firecrawl", rec.Header().Get(proxy.HeaderProvider))
}

// S2: an unauthorized request never reaches the upstream.
func TestRelay_RejectsUnauthorizedRequests(t *testing.T) {
	t.Parallel()

	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	req := httptest.NewRequest(http.MethodGet, "http://proxy.local/v1", nil)
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), `"detail"`)
}

// S3: a 429 from the first key retries with the next key and succeeds.
func TestRelay_RetriesOnRateLimitAndSucceeds(t *testing.T) {
	t.Parallel()

	var seenKeys []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seenKeys = append(seenKeys, auth)
		if auth == "Bearer key-1" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1", "key-2"})
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Bearer key-1", "Bearer key-2"}, seenKeys)
	assert.Equal(t, "2", rec.Header().Get(proxy.HeaderKeyIndex))
	assert.Equal(t, "1", rec.Header().Get(proxy.HeaderRetryCount))
}

// S4: every key exhausted returns the last attempt's retryable status rather
// than erroring, since retry only continues while attempt < max_attempts-1.
func TestRelay_AllKeysExhaustedReturnsLastStatus(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1", "key-2"})
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(proxy.HeaderRetryCount))
}

// S5: a transport-level failure (bad target) yields a 502, no retry.
func TestRelay_UpstreamUnreachableReturnsBadGateway(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	unreachable := upstream.URL
	upstream.Close() // closed immediately so any dial fails

	h := &proxy.Handler{
		Provider:        "firecrawl",
		ProxyToken:      "local-token",
		UpstreamBaseURL: unreachable,
		KeyManager:      keypool.NewRoundRobinManager([]string{"key-1"}, 60),
		HTTPClient:      &http.Client{Timeout: time.Second},
		Logs:            status.NewLogRing(),
		Logger:          zerolog.New(io.Discard),
	}
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, unreachable+"/v1")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// S6: response headers from the upstream are sanitized but passed through.
func TestRelay_SanitizesResponseHeaders(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Empty(t, rec.Header().Get("Transfer-Encoding"))
	assert.Equal(t, "yes", rec.Header().Get("X-Upstream"))
}

func TestRelay_NoKeysConfigured(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, nil)
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// A selected key containing control bytes can't be encoded as a header
// value; the pipeline must abort with 500 rather than let it reach the
// transport layer as a connect/transport error.
func TestRelay_UnencodableKeyReturnsInternalServerError(t *testing.T) {
	t.Parallel()

	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"bad\x00key"})
	req := authedRequest(t, "http://proxy.local/v1")
	rec := httptest.NewRecorder()

	h.Relay(rec, req, upstream.URL+"/v1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
	assert.JSONEq(t, `{"detail":"Invalid selected API key"}`, rec.Body.String())
}

func TestRoutes_VersionedPathAssembly(t *testing.T) {
	t.Parallel()

	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	mux := proxy.BuildFirecrawlRoutes(h)

	req := authedRequest(t, "http://proxy.local/v1/scrape")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/v1/scrape", gotPath)
}

func TestRoutes_HealthRequiresNoAuth(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	mux := proxy.BuildTavilyRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "ok"))
}

func TestRoutes_TavilyRawPathAssembly(t *testing.T) {
	t.Parallel()

	var gotURL *url.URL
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream, []string{"key-1"})
	mux := proxy.BuildTavilyRoutes(h)

	req := authedRequest(t, "http://proxy.local/search?q=go")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/search", gotURL.Path)
	assert.Equal(t, "q=go", gotURL.RawQuery)
}
