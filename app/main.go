package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uptime/app/internal/alerts"
	"uptime/app/internal/auth"
	"uptime/app/internal/checker"
	"uptime/app/internal/config"
	"uptime/app/internal/database"
	"uptime/app/internal/handlers"
	"uptime/app/internal/metrics"
	"uptime/app/internal/monitor"
	"uptime/app/internal/ratelimit"
	"uptime/app/internal/report"
)

const chartCacheTTL = 30 * time.Second

func main() {
	// Load configuration from .env, environment and optional YAML file
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	metrics.Init()

	if cfg.DemoSamples > 0 {
		if _, err := monitor.SeedDemo(cfg.DemoSamples, time.Now(), cfg.Location); err != nil {
			log.Printf("Warning: Failed to seed demo samples: %v", err)
		}
	}

	// The last stored sample stands in for the pre-restart observation
	seed, err := database.LastSample()
	if err != nil {
		log.Printf("Warning: Failed to read last sample: %v", err)
	}
	tracker := monitor.NewStatusTracker(seed)

	reporter := report.New(database.FetchSamples, cfg.Location, cfg.ReportMode, chartCacheTTL)
	defer reporter.Close()

	authMgr := auth.NewAuth(cfg.AuthUser, cfg.AuthHash, cfg.HmacSecret, cfg.InsecureDev, cfg.SessionMaxAgeS)
	if !authMgr.Enabled() {
		log.Println("Admin credentials not configured - admin routes disabled")
	}

	limiter := ratelimit.New(ratelimit.DefaultPolicies)
	defer limiter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *monitor.Scheduler
	if cfg.GatewayTarget != "" {
		prober := &checker.Prober{
			Gateway:    cfg.GatewayTarget,
			References: cfg.ReferenceTargets,
			Timeout:    cfg.ProbeTimeout,
		}
		sched = monitor.NewScheduler(prober, tracker, cfg.PollInterval)
		sched.OnChange = reporter.Invalidate
		sched.LogRetention = cfg.LogRetention
		if notifier := alerts.NewNotifier(cfg.WebhookURL, cfg.WebhookSecret); notifier.Enabled() {
			sched.Notifier = notifier
		}
	}

	schedDone := make(chan struct{})
	if cfg.EnableScheduler && sched != nil {
		go func() {
			defer close(schedDone)
			sched.Run(ctx)
		}()
		_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "Scheduler started",
			fmt.Sprintf("gateway=%s, interval=%s", cfg.GatewayTarget, cfg.PollInterval))
	} else {
		close(schedDone)
		log.Println("Scheduler disabled")
	}

	// Setup HTTP routes
	handler := handlers.SetupRoutes(handlers.Deps{
		Auth:      authMgr,
		Reporter:  reporter,
		Tracker:   tracker,
		Scheduler: sched,
		Limiter:   limiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	<-schedDone
}
