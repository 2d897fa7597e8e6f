package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/boligweb/authserver/internal/logutil"
)

const (
	shutdownGrace = 10 * time.Second
)

// Serve listens on bind until ctx is cancelled, then drains in-flight
// requests. It returns the first error reported by the listener, if any.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 16,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, err, done)
	<-done
	return <-err
}

func serveInBackground(ctx context.Context, server *http.Server, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		defer close(firstErr)
		log.Info().Msg("Auth server listening")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		} else if err != nil {
			firstErr <- err
		}
	}()
	<-serverCtx.Done()
	if ctx.Err() == nil {
		// listener failed on its own, nothing to drain
		return
	}
	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Shutdown did not complete cleanly")
	}
	log.Info().Msg("Shutdown completed")
}
