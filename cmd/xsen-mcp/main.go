package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/xsenlabs/video-mcp/internal/audit"
	"github.com/xsenlabs/video-mcp/internal/cache"
	"github.com/xsenlabs/video-mcp/internal/catalog"
	"github.com/xsenlabs/video-mcp/internal/config"
	"github.com/xsenlabs/video-mcp/internal/server"
	"github.com/xsenlabs/video-mcp/internal/tasks"
)

const version = "0.3.0"

var (
	configPath string
	daemonMode bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xsen-mcp",
		Short: "XSEN video search MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemonMode {
				cntxt := &daemon.Context{
					PidFileName: "xsen-mcp.pid",
					PidFilePerm: 0644,
				}
				child, err := cntxt.Reborn()
				if err != nil {
					return err
				}
				if child != nil {
					return nil
				}
				defer cntxt.Release()
			}
			return run()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/xsen-mcp.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&daemonMode, "daemon", false, "run in background")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !daemonMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := catalog.NewStore(cfg.Catalog.URL, cfg.Catalog.FetchTimeout)

	cacheStore, err := cache.New(cache.Config{
		Enabled:     cfg.Cache.Enabled,
		NumCounters: cfg.Cache.NumCounters,
		MaxCost:     cfg.Cache.MaxCost,
		BufferItems: cfg.Cache.BufferItems,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	auditLogger := audit.New(cfg.Audit.Enabled, os.Stdout)

	srv := server.New(server.Options{
		Config:  cfg,
		Store:   store,
		Cache:   cacheStore,
		Audit:   auditLogger,
		Version: version,
	})

	// Bind before starting background tasks so the health endpoint is
	// reachable the moment the refresh loop begins.
	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	runner := tasks.NewRunner()
	runner.Add(tasks.Task{
		Name:     "catalog-refresh",
		Delay:    cfg.Catalog.InitialDelay,
		Interval: cfg.Catalog.RefreshInterval,
		Run: func(ctx context.Context) error {
			if err := store.Load(ctx); err != nil {
				return err
			}
			log.Info().Uint64("generation", store.Generation()).Int("videos", store.Count()).Msg("catalog refreshed")
			return nil
		},
	})
	if cfg.Heartbeat.Enabled {
		healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
		runner.Add(tasks.Task{
			Name:     "heartbeat",
			Delay:    cfg.Heartbeat.Interval,
			Interval: cfg.Heartbeat.Interval,
			Run:      heartbeat(healthURL),
		})
	}
	runner.Start(ctx)

	log.Info().Int("port", cfg.Server.Port).Str("catalog", cfg.Catalog.URL).Msg("xsen-mcp listening")
	err = srv.Serve(ctx, ln)
	// Serve can fail without a signal having fired; the tasks only stop on
	// context cancellation, so cancel before waiting on them.
	stop()
	runner.Wait()
	return err
}

// heartbeat probes the service's own health endpoint. The result is only
// logged; a failed probe changes nothing about the serving process.
func heartbeat(url string) func(ctx context.Context) error {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check returned %d", resp.StatusCode)
		}
		log.Debug().Str("url", url).Msg("heartbeat ok")
		return nil
	}
}
