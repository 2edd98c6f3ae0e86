package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CollectionRow is the database model behind TableAppender.
type CollectionRow struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:16;index;not null"`
	Link      string `gorm:"not null"`
	Status    string `gorm:"size:32;not null"`
	CreatedAt time.Time
}

// TableName keeps the table name stable regardless of gorm naming rules.
func (CollectionRow) TableName() string { return "collection_rows" }

// TableAppender stores the collection in a database table.
type TableAppender struct {
	db *gorm.DB
}

// OpenTable connects to Postgres and, when migrate is true, creates or
// updates the collection_rows table.
func OpenTable(dsn string, migrate bool) (*TableAppender, error) {
	if dsn == "" {
		return nil, connectionError(errors.New("no database dsn configured"), false)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, connectionError(fmt.Errorf("connecting to postgres: %w", err), false)
	}

	if migrate {
		if err := db.AutoMigrate(&CollectionRow{}); err != nil {
			return nil, connectionError(fmt.Errorf("migrating collection_rows: %w", err), false)
		}
	}

	return NewTableAppender(db), nil
}

// NewTableAppender wraps an existing gorm connection.
func NewTableAppender(db *gorm.DB) *TableAppender {
	return &TableAppender{db: db}
}

// AppendRows inserts all rows in one statement.
func (t *TableAppender) AppendRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	models := toModels(rows, time.Now())
	if err := t.db.WithContext(ctx).Create(&models).Error; err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return connectionError(err, true)
		}
		return writeError(err, false)
	}
	return nil
}

// Close releases the underlying connection pool.
func (t *TableAppender) Close() error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModels(rows []Row, now time.Time) []CollectionRow {
	models := make([]CollectionRow, 0, len(rows))
	for _, r := range rows {
		models = append(models, CollectionRow{
			Code:      r.Code,
			Link:      r.Link,
			Status:    r.Status,
			CreatedAt: now,
		})
	}
	return models
}
