package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeMetricsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics for a running objectquelc instance",
		Long: `Serve the objectquel_compile_duration_seconds,
objectquel_compile_failures_total, and
objectquel_pagination_round_trips_total metrics over HTTP until the
process receives a termination signal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMetrics(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "address to serve /metrics on")
	return cmd
}

func runServeMetrics(cmd *cobra.Command, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	cmd.Printf("serving metrics on %s/metrics\n", addr)

	select {
	case err := <-errCh:
		return oops.Code("METRICS_SERVER_FAILED").Wrap(err)
	case <-cmd.Context().Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
