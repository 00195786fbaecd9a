package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/sso-sentinel/internal/api"
	"github.com/yegors/sso-sentinel/internal/authority"
	"github.com/yegors/sso-sentinel/internal/config"
	"github.com/yegors/sso-sentinel/internal/dispatch"
	"github.com/yegors/sso-sentinel/internal/monitor"
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/internal/pulse"
	"github.com/yegors/sso-sentinel/internal/session"
	"github.com/yegors/sso-sentinel/internal/websocket"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting SSO Sentinel",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Settings store and preferences
	settingsStore, err := prefs.NewStore(cfg.Storage.SettingsDBPath, log)
	if err != nil {
		log.Error("Failed to open settings store", logger.Error(err))
		os.Exit(1)
	}
	defer settingsStore.Close()

	preferences, err := prefs.Load(settingsStore, log)
	if err != nil {
		log.Error("Failed to load preferences", logger.Error(err))
		os.Exit(1)
	}

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Presentation plumbing
	presenter := dispatch.NewPresenter(wsServer, log)
	pulseScheduler := pulse.NewScheduler(presenter, log)
	dispatcher := dispatch.NewDispatcher(presenter, presenter, pulseScheduler, log)

	// External authority client
	authorityClient := authority.NewClient(
		cfg.Authority.Binary,
		cfg.Authority.Profile,
		time.Duration(cfg.Authority.TimeoutSecs)*time.Second,
		log,
	)

	// Session state and monitor
	sessionStore := session.NewStore(log)
	monitorService := monitor.NewService(
		authorityClient,
		sessionStore,
		preferences,
		dispatcher,
		presenter,
		presenter,
		log,
	)

	// Auto-relogin re-enters the login flow; the chained post-login
	// poll reconciles status afterwards
	dispatcher.SetReloginFunc(func() { monitorService.Login() })

	// Settings changes reschedule the poll ticker and re-derive the
	// visual state through the monitor's control loop
	preferences.SetOnChange(monitorService.ReapplySettings)

	// Route UI commands from the websocket to the monitor
	wsHandler := monitor.NewWebSocketHandler(monitorService, preferences, log)
	wsServer.SetMessageHandler(wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := monitorService.Start(ctx); err != nil {
		log.Error("Failed to start session monitor", logger.Error(err))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(monitorService, preferences, presenter, wsServer, log)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down...")

	log.Info("Stopping session monitor...")
	monitorService.Stop()
	log.Info("Session monitor stopped.")

	log.Info("Stopping pulse scheduler...")
	pulseScheduler.Stop()
	log.Info("Pulse scheduler stopped.")

	cancel()

	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
