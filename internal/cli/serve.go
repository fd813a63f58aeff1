package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/api"
	"github.com/matzehuels/cutline/pkg/buildinfo"
	"github.com/matzehuels/cutline/pkg/notify"
	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/session"
)

const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	ttl     time.Duration
	cleanup time.Duration
	maxBody int64
	redis   string // Redis address for event publishing; empty disables it
	channel string
}

// serveCommand creates the serve command that runs the HTTP session API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:    defaultAddr,
		ttl:     session.DefaultTTL,
		cleanup: time.Minute,
		maxBody: api.DefaultMaxBody,
		channel: notify.DefaultChannel,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve arrangement sessions over HTTP",
		Long: `Serve arrangement sessions over HTTP.

Clients open a session by posting a scene and then drive it with move,
resize, cut and group operations. With --redis every committed and
rejected operation is also published to a Redis channel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), loggerFromContext(cmd.Context()), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "idle lifetime of a session")
	cmd.Flags().DurationVar(&opts.cleanup, "cleanup", opts.cleanup, "interval between expired session sweeps")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "request body limit in bytes")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for event publishing (e.g. localhost:6379)")
	cmd.Flags().StringVar(&opts.channel, "channel", opts.channel, "Redis channel for events")

	return cmd
}

func runServe(ctx context.Context, logger *log.Logger, opts serveOpts) error {
	if opts.cleanup <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", opts.cleanup)
	}

	if opts.redis != "" {
		pub, rdb, err := notify.Dial(ctx, opts.redis, notify.Options{
			Channel: opts.channel,
			Source:  appName,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("connect to redis at %s: %w", opts.redis, err)
		}
		defer rdb.Close()
		observability.SetArrangeHooks(pub)
		defer func() {
			observability.SetArrangeHooks(observability.NoopArrangeHooks{})
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := pub.Close(closeCtx); err != nil {
				logger.Warn("event publisher did not drain", "err", err)
			}
			published, dropped := pub.Stats()
			logger.Info("event publisher stopped", "published", published, "dropped", dropped)
		}()
		logger.Info("publishing events", "redis", opts.redis, "channel", opts.channel)
	}

	store := session.NewMemoryStore()
	srv := api.NewServer(store, logger, api.WithTTL(opts.ttl), api.WithMaxBody(opts.maxBody))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go store.RunCleanup(ctx, opts.cleanup, func(n int) {
		logger.Info("expired sessions removed", "count", n, "open", store.Len())
	})

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "ttl", opts.ttl, "version", buildinfo.Get().Short())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
