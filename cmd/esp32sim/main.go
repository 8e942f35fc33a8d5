package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qr-dashboard/internal/middleware"
	"qr-dashboard/internal/simulator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	routesPath := flag.String("routes", "configs/esp32sim.yml", "YAML routing table (qr -> position)")
	latency := flag.Duration("latency", 0, "extra delay before each reply (overrides the file)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := simulator.LoadConfig(*routesPath)
	if err != nil {
		logger.Fatal("Failed to load routing table", zap.Error(err))
	}
	if *latency > 0 {
		cfg.Latency = *latency
	}

	device := simulator.NewDevice(*cfg, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	device.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start simulator", zap.Error(err))
		}
	}()

	logger.Info("Device simulator is running",
		zap.String("address", *addr),
		zap.Int("routes", len(cfg.Routes)),
		zap.Duration("latency", cfg.Latency))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Simulator forced to shutdown", zap.Error(err))
	}

	logger.Info("Simulator stopped", zap.Int64("requests_served", device.Requests()))
}
