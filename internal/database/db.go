package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"medipos-system/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func MigratePharmacyDB(db *gorm.DB) error {
	db.AutoMigrate(&models.Location{})
	db.AutoMigrate(&models.Product{})
	db.AutoMigrate(&models.Patient{})
	db.AutoMigrate(&models.Doctor{})
	db.AutoMigrate(&models.BillDocument{})
	db.AutoMigrate(&models.BillItem{})
	return nil
}
