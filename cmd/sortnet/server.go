package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cyberinferno/sortnet/cacher"
	"github.com/cyberinferno/sortnet/config"
	"github.com/cyberinferno/sortnet/handler"
	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/metrics"
	"github.com/cyberinferno/sortnet/tcpserver"
	"github.com/cyberinferno/sortnet/value"
)

const (
	responseCachePrefix   = "sortnet:response:"
	memoryCleanupInterval = time.Minute
)

func newServerCmd(a *app) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "server [port]",
		Short: "Start the sorting server",
		Long: `Start a TCP server that sorts the values in every request and replies with
the sorted values on one line. The port defaults to 8080 and the server binds
to localhost unless configured otherwise.

Press Ctrl+C to stop accepting connections and exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if cfg.Server.Port, err = parsePort(args[0]); err != nil {
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cmd, cfg, reverse)
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "sort in descending order")
	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, cfg config.Config, reverse bool) error {
	out := cmd.OutOrStdout()

	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	metrics.Register()
	if cfg.Metrics.Addr != "" {
		endpoint, err := metrics.Serve(cfg.Metrics.Addr, log)
		if err != nil {
			return fmt.Errorf("start metrics endpoint: %w", err)
		}
		defer endpoint.Close()
	}

	h, closeCache, err := buildHandler(ctx, cfg, reverse, log)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := tcpserver.New(tcpserver.Config{
		Name:      "sorting",
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Logger:    log,
		Admission: buildAdmission(cfg.Server),
	})
	if err := srv.SetHandler(h); err != nil {
		return err
	}

	headerColor.Fprintf(out, "=== Network Server Mode (Port %d) ===\n", cfg.Server.Port)
	fmt.Fprintln(out, "Starting sorting server...")
	if err := srv.Start(); err != nil {
		return err
	}
	okColor.Fprintf(out, "Server listening on %s\n", srv.Addr())
	fmt.Fprintln(out, "Server will sort any data sent to it and return results")

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down server...")
		srv.Stop()
	case <-srv.Done():
		warnColor.Fprintln(out, "Listener closed unexpectedly")
	}

	<-srv.Done()
	return nil
}

// buildHandler composes the sorting handler with the configured response
// cache and request timing. The returned func releases the cache.
func buildHandler(ctx context.Context, cfg config.Config, reverse bool, log logger.Logger) (handler.Handler, func(), error) {
	sortFn := handler.Ascending
	if reverse {
		sortFn = handler.Descending
	}

	var h handler.Handler = handler.Sorting(value.Parse, sortFn, log)
	closeCache := func() {}

	cache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	if cache != nil {
		h = handler.Caching(h, cache, cfg.Cache.TTL, log)
		closeCache = func() {
			if err := cache.Close(); err != nil {
				log.Warn("closing response cache", logger.Err(err))
			}
		}
		log.Info("response cache enabled", logger.F("backend", cfg.Cache.Backend), logger.F("ttl", cfg.Cache.TTL.String()))
	}

	return handler.Timed(h, log), closeCache, nil
}

func buildCache(ctx context.Context, cfg config.Cache) (cacher.Cacher[string], error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return cacher.NewMemoryCacher[string](cfg.TTL, memoryCleanupInterval), nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}

		return cacher.NewRedisCacher[string](client, responseCachePrefix), nil
	default:
		return nil, nil
	}
}

func buildAdmission(cfg config.Server) tcpserver.Admission {
	switch cfg.Admission {
	case config.AdmissionBounded:
		return tcpserver.Bounded(cfg.MaxConnections)
	case config.AdmissionRate:
		return tcpserver.RateLimited(cfg.AcceptRate, cfg.Burst)
	default:
		return tcpserver.Unbounded()
	}
}
