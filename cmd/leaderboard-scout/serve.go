package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/leaderboard-scout/internal/browserdrv"
	"github.com/use-agent/leaderboard-scout/internal/httpapi"
	"github.com/use-agent/leaderboard-scout/internal/httpapi/handler"
)

// gracePeriod bounds how long the monitoring server waits for in-flight
// requests to finish on shutdown. spec.md §5 generalizes teacher's 5s
// srv.Shutdown grace to 30s for this engine's longer-lived browser
// operations.
const gracePeriod = 30 * time.Second

// statsAdapter bridges browserdrv.Driver's Stats() (browserdrv.Stats)
// to handler.StatsProvider's expected return type (handler.Stats):
// Go interfaces match on exact signatures, so a concrete type whose
// Stats() returns a different (if structurally identical) named type
// does not satisfy the interface without this adapter.
type statsAdapter struct {
	driver *browserdrv.Driver
}

func (s statsAdapter) Stats() handler.Stats {
	st := s.driver.Stats()
	return handler.Stats{MaxPages: st.MaxPages, ActivePages: st.ActivePages}
}

func newServeCmd(keywordsPath *string) *cobra.Command {
	var production bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring HTTP API alongside the extraction engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*keywordsPath, production)
			if err != nil {
				return err
			}
			defer rt.Close()

			startTime := time.Now()
			router := httpapi.NewRouter(rt.cfg, statsAdapter{rt.driver}, rt.snapshots, rt.breaker, startTime)

			addr := fmt.Sprintf("%s:%d", rt.cfg.Server.Host, rt.cfg.Server.Port)
			srv := &http.Server{Addr: addr, Handler: router}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("monitoring HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serverErr <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErr:
				return fatalError("monitoring HTTP server error: %v", err)
			case sig := <-quit:
				slog.Info("shutdown signal received", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), gracePeriod)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("monitoring HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("monitoring HTTP server drained gracefully")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&production, "production", false, "force headless production mode")
	return cmd
}
