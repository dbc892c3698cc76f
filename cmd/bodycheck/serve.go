package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/bodycheckai/bodycheck/internal/analyzer"
	"github.com/bodycheckai/bodycheck/internal/config"
	"github.com/bodycheckai/bodycheck/internal/diagnosis"
	"github.com/bodycheckai/bodycheck/internal/handlers"
	"github.com/bodycheckai/bodycheck/internal/history"
	"github.com/bodycheckai/bodycheck/internal/imagestore"
	"github.com/bodycheckai/bodycheck/internal/line"
	"github.com/bodycheckai/bodycheck/internal/logger"
	"github.com/bodycheckai/bodycheck/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideLineClient,
			provideAnalyzerClient,
			provideImageStore,
			provideHistoryPool,
			provideHistoryStore,
			provideDiagnosisService,
			provideServerHandler(line.NewWebhookServerHandler),
			provideServerHandler(handlers.NewPingHandler),
			provideServer,
		),
		fx.Invoke(
			startHistoryStore,
			startSweeper,
			startServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideLineClient(log *slog.Logger, cfg config.Config) (*line.Client, error) {
	return line.NewClient(log, cfg.Line.ChannelAccessToken)
}

func provideAnalyzerClient(log *slog.Logger, cfg config.Config) *analyzer.Client {
	return analyzer.NewClient(log, cfg.Analyzer.BaseURL, cfg.Analyzer.Timeout())
}

func provideImageStore(log *slog.Logger, cfg config.Config) (*imagestore.Store, error) {
	return imagestore.New(log, cfg.Storage.Dir)
}

func provideHistoryPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if !cfg.Postgres.Enabled {
		return nil, nil
	}
	pool, err := pgxpool.New(context.Background(), cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideHistoryStore(log *slog.Logger, pool *pgxpool.Pool) *history.Store {
	if pool == nil {
		return nil
	}
	return history.NewStore(log, pool)
}

func provideDiagnosisService(log *slog.Logger, lineClient *line.Client, analyzerClient *analyzer.Client, store *imagestore.Store, historyStore *history.Store) *diagnosis.Service {
	svc := diagnosis.NewService(log, lineClient, analyzerClient, lineClient, store)
	if historyStore != nil {
		svc.SetRecorder(historyStore)
	}
	return svc
}

type serverParams struct {
	fx.In
	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Handlers)
}

func startHistoryStore(lc fx.Lifecycle, store *history.Store) {
	if store == nil {
		return
	}
	lc.Append(fx.Hook{OnStart: func(ctx context.Context) error { return store.Init(ctx) }})
}

func startSweeper(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, store *imagestore.Store) {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.Storage.SweepEvery())
	_, err := c.AddFunc(spec, func() {
		if _, err := store.Sweep(cfg.Storage.MaxAge()); err != nil {
			log.Warn("sweep staged images failed", slog.Any("error", err))
		}
	})
	if err != nil {
		log.Warn("schedule sweeper failed", slog.Any("error", err))
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { c.Start(); return nil },
		OnStop:  func(ctx context.Context) error { <-c.Stop().Done(); return nil },
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
