package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/krisalay/imagefeed/metrics"
	"github.com/krisalay/imagefeed/notify"
	"github.com/krisalay/imagefeed/types"
)

type watchOptions struct {
	metricsAddr string
	interval    time.Duration
}

func NewWatchCommand(opts *RootOptions) *cobra.Command {
	wo := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <npub>",
		Short: "Keep the images of an identity fresh and print every update",
		Long: "Loads the identity, then refreshes it on an interval and prints each " +
			"state change (loading, refreshing, ready, failed) until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, opts, wo, args[0])
		},
	}

	cmd.Flags().StringVar(&wo.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().DurationVar(&wo.interval, "interval", 0, "refresh interval overriding the config")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *RootOptions, wo *watchOptions, npub string) error {
	if wo.interval > 0 {
		opts.cfg.RefreshInterval = wo.interval.String()
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	if wo.metricsAddr != "" {
		srv := &http.Server{
			Addr:              wo.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				opts.logger.Error("metrics server stopped", "addr", wo.metricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// one worker, so writes to out never interleave
	out := cmd.OutOrStdout()
	printer := notify.NewAsync(notify.ListenerFunc(func(snap types.Snapshot) {
		if err := render(out, opts.Format, snap); err != nil {
			opts.logger.Warn("render failed", "error", err)
		}
	}), 64)

	f, err := opts.newFeed(feedDeps{metrics: m, notifier: printer, interval: true})
	if err != nil {
		printer.Close()
		return err
	}
	defer f.Close()

	key := opts.key(npub)
	if _, err := f.Get(ctx, key); err != nil && types.KindOf(err) == types.KindInvalidIdentifier {
		return err
	}

	<-ctx.Done()
	opts.logger.Info("watch stopped", "key", key.String())
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return fmt.Errorf("watch: %w", cause)
	}
	return nil
}
