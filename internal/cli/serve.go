package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flowline-dev/flowline/internal/metrics"
	"github.com/flowline-dev/flowline/internal/watcher"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

// newServeCommand creates the serve command.
func newServeCommand(cfgPath *string) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine as a long-lived process",
		Long: `Serve keeps the engine resident: workflow definitions under
workflows.dir are hot-reloaded as files change (workflows.watch: true), and
engine metrics are exposed on /metrics when an address is configured.

The process runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
			a, err := newApp(*cfgPath, cmd.ErrOrStderr(), workflow.WithMetrics(recorder))
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Workflows.Dir == "" {
				return fmt.Errorf("serve requires workflows.dir to be configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.cfg.Workflows.Watch {
				w, err := watcher.New(a.cfg.Workflows.Dir, a.registry, watcher.WithLogger(a.logger))
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
			}

			addr := metricsAddr
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}

			errCh := make(chan error, 1)
			var srv *http.Server
			if addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv = &http.Server{Addr: addr, Handler: mux}
				go func() {
					a.logger.Info("metrics endpoint listening", "addr", addr)
					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}()
			}

			a.logger.Info("engine serving", "workflows", len(a.registry.List()))

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			a.logger.Info("engine stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics (overrides config)")

	return cmd
}
