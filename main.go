package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realnews/api/handlers"
	"realnews/api/router"
	"realnews/cache"
	"realnews/config"
	"realnews/db"
	"realnews/feeder"
	"realnews/generator"
	"realnews/instagram"
	"realnews/logger"
	"realnews/photos"
	"realnews/pipeline"
	"realnews/repositories"
	"realnews/rewriter"
	"realnews/scheduler"
	"realnews/telegram"
	"realnews/trends"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Errorf("load config: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level)
	log := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, database, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Errorf("connect mongodb: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Errorf("disconnect mongodb: %v", err)
		}
	}()

	articleRepo := repositories.NewArticleRepository(database)
	trendRepo := repositories.NewTrendRepository(database)
	logRepo := repositories.NewSystemLogRepository(database)

	store := cache.New()
	store.Start()
	defer store.Stop()

	rw, err := rewriter.New(ctx, cfg)
	if err != nil {
		log.Errorf("init rewriter: %v", err)
		os.Exit(1)
	}
	photoClient := photos.NewClient(cfg.UnsplashAccessKey)
	fetcher := feeder.NewFetcher()

	gen := generator.New(articleRepo, trendRepo, logRepo, rw, photoClient, log)

	trendFetcher := trends.NewFetcher(trends.StaticSource{}, trendRepo, logRepo, rw, log)

	distributors := []pipeline.Distributor{
		telegram.New(cfg.TelegramBotToken, cfg.TelegramChannelID, cfg.BaseURL),
		instagram.New(cfg.InstagramUserID, cfg.InstagramToken, cfg.BaseURL),
	}

	runner := pipeline.NewRunner(
		articleRepo, trendRepo, logRepo,
		fetcher, gen, distributors, store,
		cfg.LocalFeeds(), cfg.ForeignFeeds(), log,
	)

	if cfg.Scheduler.GenerateEveryHours > 0 {
		sched := scheduler.New(
			time.Duration(cfg.Scheduler.GenerateEveryHours)*time.Hour,
			runner, logRepo, log,
		)
		sched.Start(ctx)
		defer sched.Stop()
	}

	h := &handlers.Handlers{
		Articles: articleRepo,
		Trends:   trendRepo,
		Logs:     logRepo,
		Gen:      gen,
		Fetcher:  fetcher,
		Ingester: trendFetcher,
		Runner:   runner,
		Cache:    store,
		Cfg:      cfg,
		Ping:     db.Pinger(client),
		Log:      log,
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router.New(h, cfg, nil),
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}
}
