package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buzzdash/buzzdash-backend/internal/game"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type roomRecord struct {
	RoomID  string `gorm:"column:room_id;primaryKey"`
	Version int64  `gorm:"column:version;not null"`
	Data    []byte `gorm:"column:data;type:jsonb;not null"`
}

func (roomRecord) TableName() string { return "rooms" }

// Postgres stores one row per room with a version column. Updates commit via
// `WHERE version = ?`, so a concurrent writer makes the update match zero
// rows and the read-modify-write loop retries. This is the compare-and-swap
// that makes "first accepted buzz" well-defined across processes.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&roomRecord{}); err != nil {
		return nil, fmt.Errorf("migrate rooms table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Create(ctx context.Context, room game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.RoomID, err)
	}
	rec := roomRecord{RoomID: room.RoomID, Version: 1, Data: data}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create room %s: %w", room.RoomID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, roomID string) (game.Room, error) {
	var rec roomRecord
	err := p.db.WithContext(ctx).First(&rec, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("read room %s: %w", roomID, err)
	}
	return decodeRoom(rec)
}

func (p *Postgres) Update(ctx context.Context, roomID string, mutate func(game.Room) (game.Room, error)) (game.Room, error) {
	for {
		if err := ctx.Err(); err != nil {
			return game.Room{}, err
		}

		room, rec, err := p.read(ctx, roomID)
		if err != nil {
			return game.Room{}, err
		}

		next, err := mutate(room)
		if err != nil {
			return game.Room{}, err
		}

		if err := p.commit(ctx, rec, next); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				continue
			}
			return game.Room{}, err
		}
		return next, nil
	}
}

func (p *Postgres) Delete(ctx context.Context, roomID string) error {
	if err := p.db.WithContext(ctx).Delete(&roomRecord{}, "room_id = ?", roomID).Error; err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

func (p *Postgres) read(ctx context.Context, roomID string) (game.Room, roomRecord, error) {
	var rec roomRecord
	err := p.db.WithContext(ctx).First(&rec, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Room{}, roomRecord{}, ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, roomRecord{}, fmt.Errorf("read room %s: %w", roomID, err)
	}
	room, err := decodeRoom(rec)
	return room, rec, err
}

func (p *Postgres) commit(ctx context.Context, prev roomRecord, next game.Room) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", next.RoomID, err)
	}
	res := p.db.WithContext(ctx).
		Model(&roomRecord{}).
		Where("room_id = ? AND version = ?", prev.RoomID, prev.Version).
		Updates(map[string]any{"data": data, "version": prev.Version + 1})
	if res.Error != nil {
		return fmt.Errorf("write room %s: %w", prev.RoomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}

func decodeRoom(rec roomRecord) (game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(rec.Data, &room); err != nil {
		return game.Room{}, fmt.Errorf("decode room %s: %w", rec.RoomID, err)
	}
	return room, nil
}
