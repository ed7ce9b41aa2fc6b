package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"upi-gateway/web/db"
)

// GormStore backs the engine with MySQL. Uniqueness of the public id is
// enforced by the column's unique index; guarded updates lean on
// RowsAffected instead of row locks.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(g *gorm.DB) *GormStore {
	return &GormStore{db: g}
}

func (s *GormStore) Insert(ctx context.Context, o *db.Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("public id %q: %w", o.PublicID, ErrConflict)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, publicID string) (db.Order, error) {
	var o db.Order
	err := s.db.WithContext(ctx).First(&o, "public_id = ?", publicID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return o, ErrNotFound
		}
		return o, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *GormStore) Transition(ctx context.Context, publicID string, swap Swap) (bool, error) {
	updates := map[string]any{"status": swap.To}
	tx := s.db.WithContext(ctx).Model(&db.Order{}).
		Where("public_id = ? AND status IN ?", publicID, swap.From)
	if swap.UTR != "" {
		// first claim wins: refuse to overwrite an existing UTR
		tx = tx.Where("utr = ''")
		updates["utr"] = swap.UTR
	}
	res := tx.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition order: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
