package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oss-sentinel/sentinel/internal/config"
	"github.com/oss-sentinel/sentinel/internal/history"
	"github.com/oss-sentinel/sentinel/internal/httpapi"
	"github.com/oss-sentinel/sentinel/internal/logging"
	"github.com/oss-sentinel/sentinel/internal/monitor"
	"github.com/oss-sentinel/sentinel/internal/notify"
	"github.com/oss-sentinel/sentinel/internal/probe"
	"github.com/oss-sentinel/sentinel/internal/query"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	flag.Parse()

	// Config errors are the only fatal case: the loop never starts.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store, err := history.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	notifier := buildNotifier(cfg, logger)
	checker := probe.NewHTTPChecker(cfg.ProbeTimeout())
	loop := monitor.New(logger, store, checker, notifier, cfg.Services, cfg.CheckInterval())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.API.Addr != "" {
		api := httpapi.NewServer(logger, query.New(store, config.DefaultQueryLimit),
			cfg.API.RequestsPerMinute, cfg.API.Burst)
		srv := &http.Server{Addr: cfg.API.Addr, Handler: api.Router()}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.API.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_error", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	loop.Run(ctx)
}

// buildNotifier assembles the alert channels. Missing configuration is
// a warning, never an error: the monitor keeps recording either way.
func buildNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	var channels notify.Multi

	if m := notify.NewMailer(cfg.Notifications.SMTP); m != nil {
		channels = append(channels, m)
	} else {
		logger.Warn("smtp_disabled",
			zap.String("reason", "incomplete SMTP_* / FROM_EMAIL / TO_EMAIL environment"))
	}
	if s := notify.NewSlack(cfg.Notifications.SlackWebhookURL); s != nil {
		channels = append(channels, s)
	}

	if len(channels) == 0 {
		logger.Warn("notifications_disabled")
		return nil
	}
	return channels
}
