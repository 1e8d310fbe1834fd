package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"landedcost/internal/comparison"
	"landedcost/internal/config"
	cronrunner "landedcost/internal/cron"
	"landedcost/internal/db"
	"landedcost/internal/handler"
	"landedcost/internal/jobs"
	"landedcost/internal/logger"
	"landedcost/internal/rates"
	"landedcost/internal/recommendation"
	"landedcost/internal/service"

	_ "landedcost/docs"
)

func main() {
	cfgPath := os.Getenv("LC_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store, dbConn, err := db.OpenStore(cfg.DB, logger)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}
	defer db.Close(dbConn)
	if dbConn == nil {
		logger.Warn("db.dsn is empty, using the in-memory store")
	}

	provider, err := rates.New(cfg.Rates, cfg.RateCache, logger)
	if err != nil {
		logger.Fatal("rate provider init failed", zap.Error(err))
	}

	engine := service.NewEngine(cfg, provider, service.RepoProducts{Repo: store}, logger)
	sched := jobs.New(store, jobs.Options{
		MaxConcurrent:    cfg.Scheduler.MaxConcurrent,
		MaxQueued:        cfg.Scheduler.MaxQueued,
		MaxRetries:       cfg.Scheduler.MaxRetries,
		BackoffBase:      cfg.Scheduler.BackoffBase,
		BackoffMax:       cfg.Scheduler.BackoffMax,
		StarvationAge:    cfg.Scheduler.StarvationAge,
		DispatchInterval: cfg.Scheduler.DispatchInterval,
		Metrics:          jobs.NewMetrics(prometheus.DefaultRegisterer),
		Logger:           logger,
	})
	tasks := &service.Tasks{
		Repo:       store,
		Engine:     engine,
		Generator:  service.NewGenerator(cfg.Recommendations),
		Thresholds: comparison.DefaultThresholds(),
		Logger:     logger,
	}
	tasks.Register(sched)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settingsSvc := &service.SystemSettingsService{Repo: store, Scheduler: sched, Logger: logger}
	if err := settingsSvc.EnsureDefaultSwitches(ctx); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}
	if err := settingsSvc.ApplyRuntime(ctx); err != nil {
		logger.Warn("apply runtime settings failed", zap.Error(err))
	}
	manager := &recommendation.Manager{
		Repo:         store,
		ArchiveAfter: cfg.Recommendations.ArchiveAfter,
		Logger:       logger,
	}
	scenarioSvc := &service.ScenarioService{Repo: store, Jobs: sched}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.CORS())
	router.Use(handler.RequireBearer(cfg.Server.APIToken))
	router.Use(handler.AccessLog(logger))

	(&handler.HealthHandler{DB: dbConn}).Register(router)
	(&handler.JobHandler{Scheduler: sched, Repo: store, Logger: logger}).Register(router)
	(&handler.ProductHandler{Repo: store}).Register(router)
	(&handler.ScenarioHandler{Repo: store, Service: scenarioSvc}).Register(router)
	(&handler.RecommendationHandler{Repo: store, Manager: manager}).Register(router)
	(&handler.SettingsHandler{Repo: store, Settings: settingsSvc}).Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	if err := sched.Start(ctx); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.AddTask("starvation_scan", cfg.Cron.StarvationScan,
			func(ctx context.Context) bool {
				return settingsSvc.IsEnabled(ctx, service.FeatureStarvationGuard, true)
			},
			func(ctx context.Context) error {
				n, err := sched.PromoteStarved(ctx)
				if err == nil && n > 0 {
					logger.Info("promoted starved jobs", zap.Int("count", n))
				}
				return err
			})
		if err != nil {
			logger.Warn("cron register starvation scan failed", zap.Error(err))
		}
		_, err = cronRunner.AddTask("recommendation_archive", cfg.Cron.RecommendationArchive,
			func(ctx context.Context) bool {
				return settingsSvc.IsEnabled(ctx, service.FeatureRecommendationArchive, true)
			},
			func(ctx context.Context) error {
				n, err := manager.Archive(ctx)
				if err == nil && n > 0 {
					logger.Info("archived recommendations", zap.Int64("count", n))
				}
				return err
			})
		if err != nil {
			logger.Warn("cron register recommendation archive failed", zap.Error(err))
		}
		cronRunner.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		cronRunner.Stop()
		sched.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
