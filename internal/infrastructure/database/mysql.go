package database

import (
	"fmt"
	"log"
	"time"

	"admitpredict/internal/config"
	"admitpredict/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitMySQL opens the MySQL connection pool and migrates the schema.
func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to MySQL: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to obtain underlying DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// cutoff_records is migrated for schema completeness but is loaded
	// by an external import pipeline, never written by this service.
	err = db.AutoMigrate(
		&model.User{},
		&model.PaymentOrder{},
		&model.CreditTransaction{},
		&model.CutoffRecord{},
		&model.OutboxMessage{},
	)
	if err != nil {
		log.Fatalf("schema migration failed: %v", err)
	}

	DB = db
	log.Println("MySQL connected")
	return db
}
