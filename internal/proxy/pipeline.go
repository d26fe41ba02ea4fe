package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/relaywave/balance-proxy/internal/keypool"
	"github.com/relaywave/balance-proxy/internal/status"
)

// retryableStatus is the set of upstream response codes that mark the
// selected key as exhausted and trigger a retry with the next key.
var retryableStatus = map[int]struct{}{
	http.StatusUnauthorized:    {},
	http.StatusPaymentRequired: {},
	http.StatusTooManyRequests: {},
}

// Handler is the per-provider request pipeline: authenticate, pick a key,
// relay to the upstream, retry on a retryable status with the next key,
// and relay the final response back to the caller.
type Handler struct {
	Provider        string
	ProxyToken      string
	UpstreamBaseURL string
	KeyManager      *keypool.RoundRobinManager
	HTTPClient      *http.Client
	Logs            *status.LogRing
	Logger          zerolog.Logger
}

// TargetBuilder assembles the upstream URL for a given request path/query.
type TargetBuilder func(path, rawQuery string) string

// BuildVersionedTargetURL composes a request to baseURL/<apiVersion>[/path],
// used for firecrawl's /v1 and /v2 surfaces.
func BuildVersionedTargetURL(baseURL, apiVersion, path, rawQuery string) string {
	var target string
	if path == "" {
		target = fmt.Sprintf("%s/%s", baseURL, apiVersion)
	} else {
		target = fmt.Sprintf("%s/%s/%s", baseURL, apiVersion, path)
	}
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// BuildRawTargetURL composes a request to baseURL[/path] with no version
// segment, used for tavily's flat surface.
func BuildRawTargetURL(baseURL, path, rawQuery string) string {
	target := baseURL
	if path != "" {
		target = baseURL + "/" + path
	}
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// IsAuthorized reports whether the request carries "Authorization: Bearer
// <expectedToken>".
func IsAuthorized(headers http.Header, expectedToken string) bool {
	auth := headers.Get("Authorization")
	if auth == "" {
		return false
	}
	scheme, token, found := strings.Cut(auth, " ")
	if !found {
		return false
	}
	return equalFoldASCII(scheme, "bearer") && token == expectedToken
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Relay proxies a single inbound request to targetURL, retrying across the
// key pool on a retryable upstream status.
func (h *Handler) Relay(w http.ResponseWriter, r *http.Request, targetURL string) {
	if !IsAuthorized(r.Header, h.ProxyToken) {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to read request body")
		return
	}

	started := time.Now()
	retryCount := 0
	maxAttempts := h.KeyManager.Len()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		index, key, err := h.KeyManager.Select()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "No keys configured")
			return
		}

		headers, err := SanitizeRequestHeaders(r.Header, key, h.Provider)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Invalid selected API key")
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, bytes.NewReader(body))
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Failed to build upstream request")
			return
		}
		req.Header = headers

		resp, err := h.HTTPClient.Do(req)
		if err != nil {
			h.Logs.Append(h.Logger, "WARN", fmt.Sprintf(
				"proxy_upstream_error provider=%s request_id=%s method=%s path=%s key_index=%d attempt=%d retries=%d err=%v",
				h.Provider, requestID, r.Method, r.URL.Path, index+1, attempt+1, retryCount, err))
			writeJSONError(w, http.StatusBadGateway, "Upstream request failed")
			return
		}

		if _, retryable := retryableStatus[resp.StatusCode]; retryable {
			h.KeyManager.MarkRetryableFailure(index)
			_ = resp.Body.Close()
			if attempt < maxAttempts-1 {
				retryCount++
				h.Logs.Append(h.Logger, "INFO", fmt.Sprintf(
					"proxy_retry provider=%s request_id=%s method=%s path=%s status=%d key_index=%d retries=%d",
					h.Provider, requestID, r.Method, r.URL.Path, resp.StatusCode, index+1, retryCount))
				continue
			}
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			writeJSONError(w, http.StatusBadGateway, "Failed to read upstream body")
			return
		}

		h.Logs.Append(h.Logger, "INFO", fmt.Sprintf(
			"proxy_done provider=%s request_id=%s method=%s path=%s status=%d key_index=%d retries=%d total_ms=%d",
			h.Provider, requestID, r.Method, r.URL.Path, resp.StatusCode, index+1, retryCount, time.Since(started).Milliseconds()))

		responseHeaders := SanitizeResponseHeaders(resp.Header)
		for name, values := range responseHeaders {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.Header().Set(HeaderKeyIndex, fmt.Sprintf("%d", index+1))
		w.Header().Set(HeaderRetryCount, fmt.Sprintf("%d", retryCount))
		w.Header().Set(HeaderProvider, h.Provider)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(payload)
		return
	}

	writeJSONError(w, http.StatusInternalServerError, "Unexpected routing state")
}
