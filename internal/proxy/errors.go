// Package proxy implements the HTTP request pipeline and listener
// lifecycle for balance-proxy.
package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Custom response headers the pipeline attaches on every successfully
// relayed upstream response.
const (
	HeaderKeyIndex   = "X-Proxy-Key-Index"
	HeaderRetryCount = "X-Proxy-Retry-Count"
	HeaderProvider   = "X-Proxy-Provider"
)

// errorBody matches the original proxy's error shape exactly: a bare
// {"detail": "..."}, not the richer envelope some LLM APIs use.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeJSONError writes status with a {"detail": "..."} JSON body.
func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
