package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"passgate/pkg/logging"
)

// Timeout cancels the request context after d and answers 504 if the
// handler has not responded by then. The handler goroutine may outlive
// the deadline; its writer is guarded so a late write after the 504 is
// discarded instead of racing on the underlying ResponseWriter.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := newTimeoutWriter(w)
			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				logger := logging.L(ctx)
				logger.Warn("request timeout", zap.Duration("timeout", d))
				tw.writeTimeout()
			}
		})
	}
}

// timeoutWriter serializes access to the underlying ResponseWriter.
// Headers are staged in h, which only the handler goroutine touches,
// and flushed to the real writer on the first WriteHeader; once the
// timeout response has been sent, handler writes become no-ops.
type timeoutWriter struct {
	w http.ResponseWriter
	h http.Header

	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func newTimeoutWriter(w http.ResponseWriter) *timeoutWriter {
	return &timeoutWriter{w: w, h: make(http.Header)}
}

func (tw *timeoutWriter) Header() http.Header { return tw.h }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.flushHeaderLocked(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		// The 504 already went out; swallow the late write.
		return len(b), nil
	}
	if !tw.wroteHeader {
		tw.flushHeaderLocked(http.StatusOK)
	}
	return tw.w.Write(b)
}

// flushHeaderLocked copies the staged headers through and commits the
// status code. Caller must hold tw.mu.
func (tw *timeoutWriter) flushHeaderLocked(code int) {
	dst := tw.w.Header()
	for k, v := range tw.h {
		dst[k] = v
	}
	tw.w.WriteHeader(code)
	tw.wroteHeader = true
}

// writeTimeout sends the 504 unless the handler already answered.
func (tw *timeoutWriter) writeTimeout() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.timedOut = true
	if tw.wroteHeader {
		return
	}

	tw.w.Header().Set("Content-Type", "application/json")
	tw.w.WriteHeader(http.StatusGatewayTimeout)
	_, _ = tw.w.Write([]byte(`{"error":"gateway_timeout"}`))
	tw.wroteHeader = true
}
