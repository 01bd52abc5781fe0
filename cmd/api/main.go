package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/config"
	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/fares"
	"github.com/chachabrian/mooveit-ledger/internal/handlers"
	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/chachabrian/mooveit-ledger/internal/services"
	"github.com/chachabrian/mooveit-ledger/internal/trips"
	"github.com/chachabrian/mooveit-ledger/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log := logger.New("mooveit-api")
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.DB)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	rdb, err := services.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	archive, err := services.NewReceiptArchive(cfg.Storage, log)
	if err != nil {
		log.Error("failed to initialize receipt storage", "error", err)
		os.Exit(1)
	}

	directory := ledger.NewGormDirectory(db)

	// Push is optional; a misconfigured Firebase only disables it.
	notifiers := services.Notifiers{rdb, services.ReceiptNotifier{Archive: archive, Log: log}}
	push, err := services.NewPush(ctx, cfg.Firebase, directory, log)
	if err != nil {
		log.Warn("firebase initialization failed, push notifications disabled", "error", err)
	} else if push.Enabled() {
		notifiers = append(notifiers, push)
	}

	hub := services.NewHub(log)
	go hub.Run(ctx)
	hubNotifier := services.HubNotifier{Hub: hub}
	notifiers = append(notifiers, hubNotifier)

	fareService := fares.NewService(fares.NewGormStore(db), log)
	engine := pricing.NewEngine(fareService, pricing.NewGormConfigStore(db), pricing.Defaults{
		BaseFare: cfg.Pricing.BaseFare,
		PerKm:    cfg.Pricing.PerKm,
	})
	tripStore := trips.NewGormStore(db)
	ledgerService := ledger.NewService(ledger.NewGormStore(db), directory, tripStore, notifiers, ledger.Config{
		CommissionRate: cfg.Ledger.CommissionRate,
		DebtLimit:      cfg.Ledger.DebtLimit,
		Currency:       cfg.Ledger.Currency,
	}, log)
	tripService := trips.NewService(tripStore, engine, ledgerService, directory,
		database.NewTransactor(db), hubNotifier, log)

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(r, handlers.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Fares:     fareService,
		Pricing:   engine,
		Ledger:    ledgerService,
		Trips:     tripService,
		Counter:   tripService,
		Names:     directory,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
