package database

import (
	"log"

	"gorm.io/gorm"
)

var setupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

// Migrate prepares the extensions GORM cannot create, then auto-migrates models.
func Migrate(db *gorm.DB, models ...interface{}) error {
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}
	return db.AutoMigrate(models...)
}
