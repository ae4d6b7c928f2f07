package config

import (
	"fmt"
	"log"

	"gymcheckin/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the postgres connection and migrates the schema, including
// the partial unique index on open visits.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Connected to db %s on %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)
	return db, nil
}
