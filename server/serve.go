package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sourcegraph/conc"
)

// Options configures Serve.
type Options struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// NewMux returns a mux with a /healthz probe. Connect handlers are mounted
// by the caller.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs handler on ln until ctx is done, then shuts down gracefully.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, opts Options) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}

	var (
		wg       conc.WaitGroup
		serveErr error
		stopErr  error
	)
	stopped := make(chan struct{})

	wg.Go(func() {
		slog.Info("Serving", "addr", ln.Addr().String())
		err := srv.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		close(stopped)
	})

	wg.Go(func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}

		shutdownCtx := context.Background()
		if opts.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, opts.ShutdownTimeout)
			defer cancel()
		}
		slog.Info("Shutting down", "addr", ln.Addr().String())
		stopErr = srv.Shutdown(shutdownCtx)
	})

	wg.Wait()
	return errors.Join(serveErr, stopErr)
}
