package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tasktracker/backend/internal/logutil"
)

const shutdownTimeout = 15 * time.Second

// Serve runs handler on addr until ctx is cancelled, then drains in-flight
// requests before returning.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return run(ctx, server, server.ListenAndServe)
}

func run(ctx context.Context, server *http.Server, listen func() error) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("starting HTTP server")
		err := listen()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	log.Info().Msg("shutdown completed")
	return err
}
