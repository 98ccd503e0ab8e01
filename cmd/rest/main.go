package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feature-store-be/internal/bootstrap"
	"feature-store-be/internal/config"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/server"
	"feature-store-be/internal/tracer"
	"feature-store-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.InitTracer(ctx, cfg.Tracing)
	defer shutdownTracer(context.Background())

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Initialize Database
	var gormDB *gorm.DB
	if cfg.App.StorageDriver != config.StorageDriverMemory {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, !cfg.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg, gormDB, sysLogger)
	defer container.Close()
	if cfg.App.AccessLogFilePath != "" {
		accessLogger := logger.NewIsolatedLogger(cfg.App.AccessLogFilePath)
		defer accessLogger.Sync()
		container.AccessLogger = accessLogger
	}

	// 4. Start Background Services
	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("Server", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("Server", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
