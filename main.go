package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/duelstats/config"
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/persistence"
	"github.com/wfunc/duelstats/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init()
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Log.Development {
		logger.InitDevelopment()
	} else {
		logger.Init()
	}
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Database (%s) connection successful.", cfg.Database.Driver)

	fightServer, err := server.NewFightServer(cfg, db)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fightServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown error: %v", err)
		}
	}()

	logger.Log.Infof("Starting fight server on %s", cfg.Server.HTTPAddress)
	if err := fightServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
