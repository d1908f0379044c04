package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	feed "github.com/krisalay/imagefeed"
	"github.com/krisalay/imagefeed/blossom"
	"github.com/krisalay/imagefeed/config"
	"github.com/krisalay/imagefeed/engine"
	"github.com/krisalay/imagefeed/expiration"
	"github.com/krisalay/imagefeed/logging"
	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/notify"
	"github.com/krisalay/imagefeed/pipeline"
	"github.com/krisalay/imagefeed/refresh"
	"github.com/krisalay/imagefeed/source"
	"github.com/krisalay/imagefeed/types"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// RootOptions holds the flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Source     string
	Endpoint   string
	Format     string
	LogLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "imagefeed",
		Short:         "Browse the images a Nostr identity published",
		Long:          "Collects image records from NIP-94 file metadata, notes and a Blossom server for one npub.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !types.SourceKind(opts.Source).Valid() {
				return fmt.Errorf("invalid source %q: must be metadata, notes, blossom or all", opts.Source)
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.Source, "source", "s", string(types.SourceAll), "source to query (metadata|notes|blossom|all)")
	cmd.PersistentFlags().StringVarP(&opts.Endpoint, "endpoint", "e", "", "relay or Blossom server overriding the configured default")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level overriding the config (debug|info|warn|error)")

	cmd.AddCommand(NewImagesCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))

	return cmd
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	cfg.Log.Output = cmd.ErrOrStderr()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

// key is the cache key for identifier under the selected source.
func (o *RootOptions) key(identifier string) types.Key {
	return types.NewKey(identifier, types.SourceKind(o.Source), o.Endpoint)
}

// feedDeps are the optional pieces a subcommand plugs into the feed.
type feedDeps struct {
	metrics  types.Metrics
	notifier notify.Notifier
	interval bool
}

// newFeed wires the relay pool, the Blossom client, the pipeline and the
// engine from the loaded config.
func (o *RootOptions) newFeed(deps feedDeps) (*feed.Feed, error) {
	cfg := o.cfg

	pool, err := nostr.NewPool(nostr.PoolOptions{
		Relays: cfg.Relays,
		Verify: cfg.VerifySignatures,
		Logger: o.logger,
	})
	if err != nil {
		return nil, err
	}

	reg := &source.Registry{
		Events:        pool,
		Blossom:       blossom.NewClient(cfg.TimeoutDuration()),
		BlossomServer: cfg.BlossomServer,
		Limit:         cfg.QueryLimit,
	}

	retries := cfg.Retries
	if retries == 0 {
		retries = -1
	}

	eopts := engine.Options{
		Staleness: &expiration.StaleAfterWrite{Window: cfg.StaleAfterDuration()},
		Notifier:  deps.notifier,
		Metrics:   deps.metrics,
		Logger:    o.logger,
		Retry: engine.RetryConfig{
			MaxRetries: retries,
			BaseDelay:  cfg.RetryBaseDelayDuration(),
			MaxDelay:   cfg.RetryMaxDelayDuration(),
		},
		Timeout: cfg.TimeoutDuration(),
	}
	if ttl := cfg.IdleExpireDuration(); ttl > 0 {
		eopts.Expiration = &expiration.ExpireAfterAccess{TTL: ttl}
	}
	if every := cfg.RefreshDuration(); deps.interval && every > 0 {
		eopts.Refresh = refresh.NewInterval(every)
	}

	eng := engine.NewCacheEngine(pipeline.New(reg, deps.metrics, o.logger), eopts)
	return feed.New(cfg.Shards, cfg.Capacity, cfg.EvictionPolicy(), eng), nil
}
