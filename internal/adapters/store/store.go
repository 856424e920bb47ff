// Package store is the GORM-backed record store for rooms and messages.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store implements core.RoomStore.
type Store struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and migrates it.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string, debug bool) (*Store, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "store").Str("path", path).Msg("database ready")
	return s, nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&roomRecord{}, &messageRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var rec roomRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room) error {
	rec := roomRecord{
		ID:        string(room.ID),
		PassHash:  room.PassHash,
		AdminHash: room.AdminHash,
		Enabled:   room.Enabled,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&roomRecord{}).Where("id = ?", rec.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrRoomExists
		}
		return tx.Create(&rec).Error
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrRoomExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrRoomExists
	default:
		return fmt.Errorf("failed to create room: %w", err)
	}
}

func (s *Store) SetRoomEnabled(ctx context.Context, id domain.RoomID, enabled bool) error {
	result := s.db.WithContext(ctx).Model(&roomRecord{}).Where("id = ?", string(id)).Update("enabled", enabled)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *domain.Message) error {
	if err := s.db.WithContext(ctx).Create(fromMessage(msg)).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns the newest limit messages of a room, oldest first.
func (s *Store) ListMessages(ctx context.Context, id domain.RoomID, limit int) ([]domain.Message, error) {
	var recs []messageRecord
	q := s.db.WithContext(ctx).Where("room_id = ?", string(id)).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	out := make([]domain.Message, len(recs))
	for i, rec := range recs {
		out[len(recs)-1-i] = rec.toDomain()
	}
	return out, nil
}

func (s *Store) DeleteMessages(ctx context.Context, id domain.RoomID) error {
	if err := s.db.WithContext(ctx).Where("room_id = ?", string(id)).Delete(&messageRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
