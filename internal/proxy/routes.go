package proxy

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// BuildFirecrawlRoutes wires the scrape provider's surface: /health plus
// the versioned /v1 and /v2 trees, each forwarded verbatim to the matching
// upstream API version.
func BuildFirecrawlRoutes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	registerHealthRoute(mux)

	mux.HandleFunc("/v1", versionedHandler(h, "v1"))
	mux.HandleFunc("/v1/", versionedHandler(h, "v1"))
	mux.HandleFunc("/v2", versionedHandler(h, "v2"))
	mux.HandleFunc("/v2/", versionedHandler(h, "v2"))

	return mux
}

// BuildTavilyRoutes wires the search provider's flat surface: /health plus
// everything else forwarded as-is with no version segment.
func BuildTavilyRoutes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	registerHealthRoute(mux)
	mux.HandleFunc("/", rawHandler(h))
	return mux
}

func versionedHandler(h *Handler, apiVersion string) http.HandlerFunc {
	prefix := "/" + apiVersion
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
		target := BuildVersionedTargetURL(h.UpstreamBaseURL, apiVersion, path, r.URL.RawQuery)
		h.Relay(w, r, target)
	}
}

func rawHandler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		target := BuildRawTargetURL(h.UpstreamBaseURL, path, r.URL.RawQuery)
		h.Relay(w, r, target)
	}
}

func registerHealthRoute(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			log.Error().Err(err).Msg("failed to write health response")
		}
	})
}
