package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative defaults. Validation runs are
// synchronous, so generous write timeouts cover large report exports.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
