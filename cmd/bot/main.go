package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/saeedhm/debtbot/internal/alert"
	"github.com/saeedhm/debtbot/internal/bot"
	"github.com/saeedhm/debtbot/internal/config"
	"github.com/saeedhm/debtbot/internal/notifier"
	"github.com/saeedhm/debtbot/internal/repository"
	"github.com/saeedhm/debtbot/internal/scheduler"
	"github.com/saeedhm/debtbot/internal/service"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	loc := cfg.Location()

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.InitSchema(ctx); err != nil {
		logger.Fatalf("Failed to init schema: %v", err)
	}
	svc := service.NewService(repo, logger, loc)

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatalf("Failed to init bot: %v", err)
	}
	botAPI.Debug = false

	var alerter scheduler.Alerter
	if a := alert.NewSender(cfg, logger); a.Enabled() {
		alerter = a
	}

	sched := scheduler.New(repo, notifier.NewTelegram(botAPI, logger), alerter, logger, loc)
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	// Health endpoint
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods("GET")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Health server failed: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		logger.Info("Shutdown signal received")
		cancel()
	}()

	logger.Infof("Debt reminder bot started as @%s (timezone %s)", botAPI.Self.UserName, loc)
	bot.NewHandler(botAPI, svc, logger).Run(ctx)

	sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Health server shutdown: %v", err)
	}
	logger.Info("Shutdown complete")
}
