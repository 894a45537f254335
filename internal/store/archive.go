// Package store archives resolution passes so an assembled binding can be
// audited or replayed later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spreader/internal/binding"
	"spreader/internal/pkg/text"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("pass not found")

const maxErrorLen = 1024

const (
	StatusAssembled = "assembled"
	StatusFailed    = "failed"
)

// Entry is one archived pass without its payload.
type Entry struct {
	PassID    string
	Strategy  string
	Status    string
	Stage     string
	Error     string
	Markets   string
	CreatedAt time.Time
}

type passModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	PassID        string         `gorm:"column:pass_id;uniqueIndex"`
	Strategy      string         `gorm:"column:strategy"`
	Status        string         `gorm:"column:status;index"`
	Stage         string         `gorm:"column:stage"`
	Error         string         `gorm:"column:error"`
	Markets       string         `gorm:"column:markets"`
	RecordJSON    datatypes.JSON `gorm:"column:record_json;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (passModel) TableName() string { return "passes" }

// GormArchive stores passes in SQLite through gorm, using the pure Go
// modernc driver.
type GormArchive struct {
	db *gorm.DB
}

func NewGormArchive(path string) (*GormArchive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("pass archive: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&passModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &GormArchive{db: db}, nil
}

func (a *GormArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRecord archives an assembled pass. Saving the same pass id again
// replaces the stored record.
func (a *GormArchive) SaveRecord(ctx context.Context, rec binding.Record) error {
	if strings.TrimSpace(rec.PassID) == "" {
		return fmt.Errorf("pass archive: record has no pass id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("pass archive: encode record: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return a.upsert(ctx, passModel{
		PassID:        rec.PassID,
		Strategy:      rec.Strategy,
		Status:        StatusAssembled,
		Markets:       marketsLabel(rec.Markets),
		RecordJSON:    datatypes.JSON(payload),
		CreatedAtUnix: created.Unix(),
	})
}

// SaveFailure archives a pass that stopped at stage.
func (a *GormArchive) SaveFailure(ctx context.Context, passID, stage string, cause error) error {
	if strings.TrimSpace(passID) == "" {
		return fmt.Errorf("pass archive: failure has no pass id")
	}
	msg := ""
	if cause != nil {
		msg = text.Truncate(cause.Error(), maxErrorLen)
	}
	return a.upsert(ctx, passModel{
		PassID:        passID,
		Status:        StatusFailed,
		Stage:         stage,
		Error:         msg,
		RecordJSON:    datatypes.JSON("{}"),
		CreatedAtUnix: time.Now().Unix(),
	})
}

func (a *GormArchive) upsert(ctx context.Context, m passModel) error {
	m.UpdatedAtUnix = time.Now().Unix()
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pass_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"strategy", "status", "stage", "error", "markets", "record_json", "updated_at"}),
		}).
		Create(&m).Error
}

// LoadRecord returns the record of an assembled pass. Failed passes have no
// record and report ErrNotFound.
func (a *GormArchive) LoadRecord(ctx context.Context, passID string) (binding.Record, error) {
	var m passModel
	err := a.db.WithContext(ctx).
		Where("pass_id = ? AND status = ?", strings.TrimSpace(passID), StatusAssembled).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return binding.Record{}, fmt.Errorf("%w: %s", ErrNotFound, passID)
	}
	if err != nil {
		return binding.Record{}, err
	}
	var rec binding.Record
	if err := json.Unmarshal(m.RecordJSON, &rec); err != nil {
		return binding.Record{}, fmt.Errorf("pass archive: decode record %s: %w", passID, err)
	}
	return rec, nil
}

// List returns the newest passes first, restricted to status unless it is
// empty. limit <= 0 returns all of them.
func (a *GormArchive) List(ctx context.Context, status string, limit int) ([]Entry, error) {
	var models []passModel
	q := a.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(models))
	for _, m := range models {
		out = append(out, Entry{
			PassID:    m.PassID,
			Strategy:  m.Strategy,
			Status:    m.Status,
			Stage:     m.Stage,
			Error:     m.Error,
			Markets:   m.Markets,
			CreatedAt: time.Unix(m.CreatedAtUnix, 0),
		})
	}
	return out, nil
}

func marketsLabel(markets []binding.MarketRecord) string {
	parts := make([]string, 0, len(markets))
	for _, m := range markets {
		parts = append(parts, fmt.Sprintf("%s=%s:%s", m.Role, m.Market, m.TradingPair))
	}
	return strings.Join(parts, " ")
}
