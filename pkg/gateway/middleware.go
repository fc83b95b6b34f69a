// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"time"

	zctx "github.com/LeeDigitalWorks/zapgate/pkg/context"
	"github.com/LeeDigitalWorks/zapgate/pkg/logger"

	"github.com/getsentry/sentry-go"
)

type wrappedResponseRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *wrappedResponseRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *wrappedResponseRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func (w *wrappedResponseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// recoverer turns a handler panic into a 500 and reports it to Sentry.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			hub.RecoverWithContext(r.Context(), rec)

			logger.Ctx(r.Context()).Error().Str("panic", fmt.Sprint(rec)).Msg("handler panicked")
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger assigns a request id, attaches a request scoped logger and
// records the request metrics once the handler returns.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, reqID := zctx.WithRequestID(r.Context(), r.Header.Get(zctx.RequestHeader))
		l := logger.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ctx = logger.WithLogger(ctx, &l)
		w.Header().Set(zctx.RequestHeader, reqID)

		rec := &wrappedResponseRecorder{ResponseWriter: w}
		req := r.WithContext(ctx)
		next.ServeHTTP(rec, req)

		if rec.statusCode == 0 {
			rec.statusCode = http.StatusOK
		}
		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(rec.statusCode)
		elapsed := time.Since(start)
		RequestsTotal.WithLabelValues(route, status).Inc()
		RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())

		event := l.Debug()
		if rec.statusCode >= http.StatusInternalServerError {
			event = l.Warn()
		}
		event.Int("status", rec.statusCode).
			Int64("bytes", rec.bytesWritten).
			Dur("duration", elapsed).
			Msg("request completed")
	})
}

// cors allows any origin, method and header, and answers preflights before
// the auth gate sees them.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Expose-Headers", NodeIDHeader+", "+zctx.RequestHeader+", Content-Disposition")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "*")
			h.Set("Access-Control-Allow-Headers", "*")
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// auth rejects requests without the configured API key. /health is exempt
// and an empty key disables the gate.
func (s *Server) auth(next http.Handler) http.Handler {
	token := s.cfg.APIKey
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		provided := r.Header.Get(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			logger.Ctx(r.Context()).Warn().Bool("key_present", provided != "").Msg("request rejected: invalid api key")
			writeJSONError(w, "invalid api key", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
