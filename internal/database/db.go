package database

import (
	"log"

	"lustre-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Organisation{},
		&model.User{},
		&model.RefreshToken{},
		&model.Client{},
		&model.Property{},
		&model.Quote{},
		&model.QuoteLineItem{},
		&model.QuoteCounter{},
		&model.Job{},
		&model.Activity{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
