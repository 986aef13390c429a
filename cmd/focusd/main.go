package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"focus-reminders/internal/bot"
	"focus-reminders/internal/config"
	"focus-reminders/internal/logging"
	"focus-reminders/internal/metrics"
	"focus-reminders/internal/model"
	"focus-reminders/internal/push"
	"focus-reminders/internal/repository"
	"focus-reminders/internal/schedule"
	"focus-reminders/internal/seed"
	"focus-reminders/internal/server"
	"focus-reminders/internal/service"
)

func main() {
	seedPath := flag.String("seed", "", "apply a YAML fixture file before starting")
	once := flag.Bool("once", false, "run a single scheduled check and exit")
	linkOwner := flag.String("link", "", "print the Telegram link for an owner and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	opts := runOptions{seedPath: *seedPath, once: *once, linkOwner: *linkOwner}
	if err := run(ctx, cfg, opts, log); err != nil {
		log.Fatal().Err(err).Msg("focusd stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

type runOptions struct {
	seedPath  string
	once      bool
	linkOwner string
}

func run(ctx context.Context, cfg config.Config, opts runOptions, log zerolog.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	var subs service.SubscriptionRegistry = subRepo
	if cfg.RedisURL != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		subs = repository.NewCachedSubscriptionRepository(subRepo, rdb, cfg.SubscriptionCacheTTL, log)
		log.Info().Msg("subscription cache enabled")
	}

	taskSvc := service.NewTaskService(taskRepo)
	subscriptionSvc := service.NewSubscriptionService(subs)

	if opts.seedPath != "" {
		if _, err := seed.New(userRepo, taskSvc, subscriptionSvc, log).LoadFile(ctx, opts.seedPath); err != nil {
			return err
		}
	}

	var telegram *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		if telegram, err = push.NewTelegramBot(cfg.TelegramToken); err != nil {
			return err
		}
	}
	if opts.linkOwner != "" {
		if telegram == nil {
			return errors.New("-link needs TELEGRAM_TOKEN")
		}
		fmt.Printf("https://t.me/%s?start=%s\n", telegram.Self.UserName, bot.LinkToken(cfg.TelegramToken, opts.linkOwner))
		return nil
	}
	router := newRouter(cfg, telegram, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	zones, err := schedule.NewZoneCache(cfg.DefaultTimezone, log)
	if err != nil {
		return err
	}

	notifier := service.NewNotificationService(subs, taskRepo, router, service.NotificationOptions{
		Timeout:    cfg.DispatchTimeout,
		RatePerSec: cfg.DispatchRatePerSec,
	}, m, log)
	checker := service.NewCheckService(taskRepo, notifier, zones, service.CheckOptions{
		Lookback:    cfg.LookbackWindow,
		Concurrency: cfg.DispatchConcurrency,
	}, m, log)

	if opts.once {
		summary, err := checker.RunScheduledCheck(ctx)
		if err != nil {
			return err
		}
		log.Info().Interface("summary", summary).Msg("check finished")
		return nil
	}

	if telegram != nil {
		chatBot := bot.New(telegram, cfg.TelegramToken, userRepo, subscriptionSvc, taskSvc, log)
		go func() {
			if err := chatBot.Start(ctx); err != nil {
				log.Error().Err(err).Msg("telegram bot stopped")
			}
		}()
	}

	if cfg.CheckInterval > 0 {
		scheduler := service.NewSchedulerService(time.UTC, log)
		if _, err := scheduler.ScheduleInterval(cfg.CheckInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, cfg.LookbackWindow)
			defer cancel()
			if _, err := checker.RunScheduledCheck(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("scheduled check")
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Dur("interval", cfg.CheckInterval).Dur("lookback", cfg.LookbackWindow).Msg("in-process trigger started")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(checker, server.Options{CronSecret: cfg.CronSecret, Gatherer: reg}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter registers a sender for each configured delivery channel.
func newRouter(cfg config.Config, telegram *tgbotapi.BotAPI, log zerolog.Logger) *push.Router {
	router := push.NewRouter()
	if cfg.WebPushEnabled() {
		router.Register(model.KindWebPush, push.NewWebPushSender(push.WebPushConfig{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		}))
	} else {
		log.Warn().Msg("VAPID keys not set, web push delivery disabled")
	}
	if telegram != nil {
		router.Register(model.KindTelegram, push.NewTelegramSender(telegram))
	}
	log.Info().Strs("kinds", router.Kinds()).Msg("delivery channels")
	return router
}
