package httputil

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const HeaderRequestID = "X-Request-ID"

// EchoRequestID возвращает клиенту id запроса, выданный middleware.RequestID
// (или пришедший во входящем X-Request-ID). Ставить после RequestID.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set(HeaderRequestID, reqID)
		}
		next.ServeHTTP(w, r)
	})
}
