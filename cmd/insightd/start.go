package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/insightd/internal/api"
	"github.com/amishk599/insightd/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the collection daemon",
	Long:  "Start the scheduler (collect + structure jobs) and the HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"database", cfg.Database.Driver,
		"collect_interval", cfg.Collect.Interval.String(),
		"structure_interval", cfg.Collect.StructureInterval.String(),
		"stages", len(cfg.AI.Stages),
		"server", cfg.Server.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := setupStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := seedKeywords(ctx, st, cfg.Collect.Keywords, logger); err != nil {
		logger.Error("failed to seed keywords", "error", err)
		os.Exit(1)
	}

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	coll, err := buildCollector(cfg, st, st, n, logger)
	if err != nil {
		logger.Error("failed to build collector", "error", err)
		os.Exit(1)
	}
	structurer, err := buildStructurer(cfg, st, st, logger)
	if err != nil {
		logger.Error("failed to build structurer", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler([]scheduler.Job{
		{
			Name:     "collect",
			Interval: cfg.Collect.Interval,
			Timeout:  cfg.Collect.RunTimeout,
			Run: func(ctx context.Context) error {
				_, err := coll.CollectAll(ctx, cfg.Search.ResultCount)
				return err
			},
		},
		{
			Name:     "structure",
			Interval: cfg.Collect.StructureInterval,
			Timeout:  cfg.Collect.RunTimeout,
			Run: func(ctx context.Context) error {
				_, err := structurer.Run(ctx)
				return err
			},
		},
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.NewServer(st, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http server listening", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
