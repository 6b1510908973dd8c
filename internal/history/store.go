// Package history records ingested documents and answered queries.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// UploadedFile is one ingested document.
type UploadedFile struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	Filename   string      `gorm:"size:255;not null" json:"filename"`
	Title      string      `gorm:"size:255" json:"title"`
	Version    string      `gorm:"size:64" json:"version"`
	ToolCount  int         `json:"tool_count"`
	UploadedAt time.Time   `gorm:"index" json:"uploaded_at"`
	Operations []Operation `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"operations,omitempty"`
}

// Operation is one tool extracted from an uploaded file.
type Operation struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	FileID      string `gorm:"size:36;not null;index" json:"file_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Method      string `gorm:"size:16" json:"method"`
	Path        string `gorm:"size:1024" json:"path"`
	Description string `gorm:"type:text" json:"description"`
}

// QueryRecord is one answered query.
type QueryRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Query      string    `gorm:"type:text;not null" json:"query"`
	ToolName   string    `gorm:"size:255" json:"tool_name"`
	StatusCode *int      `json:"status_code"`
	Response   string    `gorm:"type:text" json:"response"`
	Failure    string    `gorm:"size:64" json:"failure,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (QueryRecord) TableName() string { return "query_history" }

// Store persists history records.
type Store interface {
	SaveDocument(ctx context.Context, file *UploadedFile) error
	ListDocuments(ctx context.Context) ([]UploadedFile, error)
	SaveQuery(ctx context.Context, record *QueryRecord) error
	RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error)
	Close() error
}

// GormStore is a Store backed by a SQL database through GORM.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (and migrates) the SQLite database at dsn.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open database, migrating the history tables.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&UploadedFile{}, &Operation{}, &QueryRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history tables: %w", err)
	}
	return &GormStore{db: db, log: logger.Named("history")}, nil
}

// SaveDocument stores file and its operations, assigning missing IDs.
func (s *GormStore) SaveDocument(ctx context.Context, file *UploadedFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}
	for i := range file.Operations {
		if file.Operations[i].ID == "" {
			file.Operations[i].ID = uuid.NewString()
		}
		file.Operations[i].FileID = file.ID
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("save document %s: %w", file.Filename, err)
	}
	s.log.Debug("Document recorded", zap.String("id", file.ID), zap.String("filename", file.Filename))
	return nil
}

// ListDocuments returns uploaded files, newest first, with their operations.
func (s *GormStore) ListDocuments(ctx context.Context) ([]UploadedFile, error) {
	var files []UploadedFile
	err := s.db.WithContext(ctx).
		Preload("Operations").
		Order("uploaded_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return files, nil
}

// SaveQuery stores record, assigning missing IDs and timestamps.
func (s *GormStore) SaveQuery(ctx context.Context, record *QueryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save query: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit queries, newest first. limit <= 0 means all.
func (s *GormStore) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	var records []QueryRecord
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return records, nil
}

// Close releases the database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NopStore discards everything.
type NopStore struct{}

func (NopStore) SaveDocument(context.Context, *UploadedFile) error { return nil }

func (NopStore) ListDocuments(context.Context) ([]UploadedFile, error) { return nil, nil }

func (NopStore) SaveQuery(context.Context, *QueryRecord) error { return nil }

func (NopStore) RecentQueries(context.Context, int) ([]QueryRecord, error) { return nil, nil }

func (NopStore) Close() error { return nil }

// NewFromConfig opens the configured store, or a NopStore when disabled.
func NewFromConfig(cfg config.HistoryConfig) (Store, error) {
	if !cfg.Enabled {
		return NopStore{}, nil
	}
	return Open(cfg.DSN)
}

// Module provides the history Store and closes it on shutdown.
var Module = fx.Module("history",
	fx.Provide(func(lc fx.Lifecycle, cfg *config.Config) (Store, error) {
		store, err := NewFromConfig(cfg.History)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return store.Close() },
		})
		return store, nil
	}),
)
