package providers

import (
	"fitsink/internal/models"
	"fitsink/internal/structures"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewDBProvider(conf *structures.Config, logger Logger) (*gorm.DB, error) {
	sslMode := conf.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conf.Database.Host, conf.Database.Port, conf.Database.User,
		conf.Database.Password, conf.Database.Name, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.MetricRecord{},
		&models.WorkoutRecord{},
		&models.IntegrationRecord{},
		&models.SubscriptionRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	logger.Infof(TypeDb, "Database connection established, schema migrated")
	return db, nil
}
