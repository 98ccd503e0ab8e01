package main

import (
	"log"

	"feature-store-be/internal/config"
	"feature-store-be/internal/model"
	"feature-store-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatal("Error: Migration failed:", err)
	}
	log.Println("Migration completed")
}
