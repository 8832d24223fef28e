package database

import (
	"time"

	"trysite/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the SQLite database at dbPath and migrates the schema.
func InitDB(dbPath string, log zerolog.Logger) (*gorm.DB, error) {
	sqlLog := log.With().Str("component", "gorm").Logger()

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(&sqlLog, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("Migrating database...")
	if err := db.AutoMigrate(&models.ShellSettings{}); err != nil {
		return nil, err
	}

	return db, nil
}
