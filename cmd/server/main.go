package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qr-dashboard/internal/config"
	"qr-dashboard/internal/esp32"
	"qr-dashboard/internal/handler"
	"qr-dashboard/internal/metrics"
	"qr-dashboard/internal/middleware"
	"qr-dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	host := flag.String("host", "", "listen host (overrides server.host)")
	port := flag.String("port", "", "listen port (overrides server.port)")
	debug := flag.Bool("debug", false, "development logging and gin debug mode")
	flag.Parse()

	// .env may carry ESP32_IP; a missing file is fine
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	cfgMissing := errors.Is(err, fs.ErrNotExist)
	if cfgMissing {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		bootLogger, logErr := zap.NewDevelopment()
		if logErr != nil {
			panic(logErr)
		}
		bootLogger.Fatal("Failed to load config", zap.Error(err))
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Server.Debug = true
	}

	logger, err := newLogger(cfg.Server.Debug, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting QR classification dashboard...")

	if cfgMissing {
		logger.Warn("Config file not found, using defaults", zap.String("path", *configPath))
	}
	if envErr != nil {
		logger.Debug("No .env file loaded", zap.Error(envErr))
	}

	// Initialize device client
	client := esp32.NewClient(cfg.Device.Host, logger)
	logger.Info("Classification device configured",
		zap.String("url", client.URL()),
		zap.Duration("timeout", esp32.RequestTimeout))

	m := metrics.New()

	// Initialize service
	dashboard := service.NewDashboard(client, m, logger)

	// Initialize HTTP handler
	dashboardHandler := handler.NewHandler(dashboard, logger)

	// Setup Gin router
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	dashboardHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: mux,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		logger.Info("Metrics listener started", zap.String("address", cfg.Metrics.Addr))
	}

	logger.Info("Dashboard is running", zap.String("address", cfg.Addr()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// long enough for an in-flight device call to finish
	ctx, cancel := context.WithTimeout(context.Background(), esp32.RequestTimeout+2*time.Second)
	defer cancel()

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(debug bool, level string) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
