package logutil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte

	statusRecorder struct {
		http.ResponseWriter
		status int
	}
)

const (
	RequestIDHeader = "X-Request-Id"
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// Middleware gives every request its own logger, tagged with a request id,
// and writes one access line once the request is done.
func Middleware(base zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		logger := base.With().Str("req.id", reqID).Logger()
		w.Header().Set(RequestIDHeader, reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(WithLogger(r.Context(), logger)))
		logger.Info().
			Str("req.method", r.Method).
			Str("req.path", r.URL.Path).
			Int("res.status", rec.status).
			Dur("req.duration", time.Since(start)).
			Msg("Request served")
	})
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
