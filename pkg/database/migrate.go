package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate prepares extensions GORM cannot create and auto-migrates models.
func Migrate(db *gorm.DB, models ...interface{}) error {
	// gen_random_uuid() defaults need pgcrypto before PostgreSQL 13.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("create pgcrypto extension: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
