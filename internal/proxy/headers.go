package proxy

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/relaywave/balance-proxy/internal/config"
)

// ErrHeaderEncoding is returned when the selected pool key contains bytes
// that cannot be encoded as an HTTP header value (e.g. control characters).
var ErrHeaderEncoding = errors.New("selected API key is not a valid header value")

// requestHeaderBlocklist strips hop-by-hop and connection-identifying
// headers from the inbound request before it's forwarded upstream; the
// proxy rebuilds Authorization itself from the selected pool key.
var requestHeaderBlocklist = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"authorization":       {},
	"host":                {},
	"content-length":      {},
}

// responseHeaderBlocklist strips hop-by-hop headers from the upstream
// response before it's relayed back to the caller.
var responseHeaderBlocklist = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"content-length":      {},
}

// SanitizeRequestHeaders copies headers minus the blocklist, then forces an
// Authorization: Bearer header carrying the selected pool key. For the
// tavily provider it also sets X-Api-Key, matching the search API's own
// auth scheme. Returns ErrHeaderEncoding if selectedKey can't be encoded as
// an HTTP header value (e.g. it contains control characters).
func SanitizeRequestHeaders(headers http.Header, selectedKey, provider string) (http.Header, error) {
	if !httpguts.ValidHeaderFieldValue(selectedKey) {
		return nil, ErrHeaderEncoding
	}

	sanitized := make(http.Header, len(headers)+2)
	for name, values := range headers {
		if _, blocked := requestHeaderBlocklist[strings.ToLower(name)]; blocked {
			continue
		}
		sanitized[name] = values
	}

	sanitized.Set("Authorization", "Bearer "+selectedKey)
	if strings.EqualFold(provider, config.Tavily) {
		sanitized.Set("X-Api-Key", selectedKey)
	}
	return sanitized, nil
}

// SanitizeResponseHeaders copies headers minus the blocklist, for relaying
// an upstream response back to the caller.
func SanitizeResponseHeaders(headers http.Header) http.Header {
	sanitized := make(http.Header, len(headers))
	for name, values := range headers {
		if _, blocked := responseHeaderBlocklist[strings.ToLower(name)]; blocked {
			continue
		}
		sanitized[name] = values
	}
	return sanitized
}
