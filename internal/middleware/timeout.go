package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// Timeout bounds handler run time. It must not wrap the websocket route:
// http.TimeoutHandler's writer cannot be hijacked.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(errorEnvelope("REQUEST_TIMEOUT", "request timed out"))
	message := string(body)

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
