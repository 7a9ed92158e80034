package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogapi/internal/config"
	"blogapi/internal/db"
	"blogapi/internal/router"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	if cfg.UsingDevSecret() {
		utils.Logger.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	gdb, err := db.Init(cfg)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialise database")
	}

	r, err := router.New(cfg, gdb)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.LogInfo("Blog API server starting on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}
