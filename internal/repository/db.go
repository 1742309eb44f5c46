// internal/repository/db.go
package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"eliza_tutor/internal/model"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schemaModels is the full ordered set of persisted entities. The order is
// parent-before-child so AutoMigrate creates foreign key targets first.
var schemaModels = []interface{}{
	&model.Course{}, &model.Lesson{}, &model.Exercise{}, &model.Trial{},
	&model.ChatSession{}, &model.ChatMessage{}, &model.MathStep{},
	&model.ImageMathProblem{}, &model.BoundingBox{},
	&model.UserProgress{}, &model.LessonProgress{}, &model.UserAnswer{},
	&model.StudySession{}, &model.Achievement{},
	&model.LearningStats{}, &model.WeeklyProgress{},
}

// SchemaInfo holds the identity hash of the schema this store was created
// with. A mismatch on open means the binary and the store disagree and must
// be reconciled before any query runs.
type SchemaInfo struct {
	ID        uint   `gorm:"primaryKey"`
	Hash      string `gorm:"not null"`
	UpdatedAt time.Time
}

func (SchemaInfo) TableName() string { return "schema_info" }

// SchemaFingerprint derives a stable hash from the model set: type names,
// field names and field types, in declaration order.
func SchemaFingerprint() string {
	var b strings.Builder
	for _, m := range schemaModels {
		t := reflect.TypeOf(m).Elem()
		b.WriteString(t.Name())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			fmt.Fprintf(&b, "|%s:%s:%s", f.Name, f.Type.String(), f.Tag.Get("gorm"))
		}
		b.WriteString("\n")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NewDB opens the on-device sqlite store, enforces foreign keys, and
// reconciles the schema identity.
func NewDB(path string, appLogger *slog.Logger) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	} else if !strings.Contains(dsn, "_foreign_keys") {
		dsn += "&_foreign_keys=on"
	}

	slogGormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithSlowThreshold(200*time.Millisecond),
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: slogGormLogger.LogMode(gormlogger.Warn),
	})
	if err != nil {
		appLogger.Error("Failed to open sqlite store", slog.Any("error", err), slog.String("path", path))
		return nil, err
	}

	// Single writer; sqlite serializes writes anyway and a second write
	// connection only buys SQLITE_BUSY errors.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := ensureSchema(db, appLogger); err != nil {
		return nil, err
	}

	appLogger.Info("Database ready", slog.String("path", path))
	return db, nil
}

// ensureSchema compares the stored schema hash with the binary's. On a fresh
// store it migrates and records the hash; on mismatch it migrates in place,
// or recreates the store destructively when the migration fails. It never
// continues silently on an unknown schema.
func ensureSchema(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(&SchemaInfo{}); err != nil {
		return fmt.Errorf("ensureSchema: migrate schema_info: %w", err)
	}

	want := SchemaFingerprint()
	var info SchemaInfo
	result := db.First(&info)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		logger.Info("Fresh store, creating schema")
		if err := db.AutoMigrate(schemaModels...); err != nil {
			return fmt.Errorf("ensureSchema: initial migration: %w", err)
		}
		return db.Create(&SchemaInfo{ID: 1, Hash: want}).Error

	case result.Error != nil:
		return fmt.Errorf("ensureSchema: read schema_info: %w", result.Error)

	case info.Hash == want:
		return nil

	default:
		logger.Warn("Schema identity mismatch, migrating",
			slog.String("stored", info.Hash), slog.String("expected", want))
		if err := db.AutoMigrate(schemaModels...); err != nil {
			logger.Error("Migration failed, recreating store destructively", slog.Any("error", err))
			if dropErr := dropAll(db); dropErr != nil {
				return fmt.Errorf("ensureSchema: drop after failed migration: %w", dropErr)
			}
			if err := db.AutoMigrate(schemaModels...); err != nil {
				return fmt.Errorf("ensureSchema: recreate: %w", err)
			}
		}
		info.Hash = want
		return db.Save(&info).Error
	}
}

func dropAll(db *gorm.DB) error {
	// Children first so FK constraints do not block the drops.
	for i := len(schemaModels) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(schemaModels[i]); err != nil {
			return err
		}
	}
	return db.AutoMigrate(&SchemaInfo{})
}

// Migrate exposes the full migration for tests that build throwaway stores.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(schemaModels...)
}
