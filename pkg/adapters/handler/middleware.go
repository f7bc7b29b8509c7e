package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/services"
	"go.uber.org/zap"
)

const authCookie = "auth_token"

type ctxKey int

const requestIDKey ctxKey = iota

type Middleware struct {
	logger *zap.Logger
	status *services.StatusService
}

func NewMiddleware(logger *zap.Logger, status *services.StatusService) *Middleware {
	return &Middleware{logger: logger, status: status}
}

// Wrap applies request id, logging, counting and panic recovery, outermost first.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return m.RequestLogger(m.Recover(m.Count(next)))
}

// statusRecorder captures the status and size written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

// RequestLogger tags each request with an X-Request-ID and logs its outcome.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		m.logger.Info("request completed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("size", rec.size),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", clientIP(r)))
	})
}

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic recovered",
					zap.String("request_id", RequestIDFrom(r.Context())),
					zap.Any("error", err),
					zap.Stack("stack"))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Count feeds the api counter of the status endpoint.
func (m *Middleware) Count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.status.Touch()
		next.ServeHTTP(w, r)
	})
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// tokenFrom looks for a bearer token in the `t` query parameter, the
// Authorization header and the auth cookie, in that order.
func tokenFrom(r *http.Request) string {
	if t := r.URL.Query().Get("t"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(authCookie); err == nil {
		return c.Value
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
