package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("menu item not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Lookup 按 id 取菜品快照。实现订单引擎的 catalog 协作方接口。
func (r *Repo) Lookup(ctx context.Context, menuItemID string) (Snapshot, error) {
	if r == nil || r.db == nil {
		return Snapshot{}, fmt.Errorf("repo db is nil")
	}
	var m MenuItem
	err := r.db.WithContext(ctx).Where("id = ?", menuItemID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	return Snapshot{Price: m.Price, Available: m.Available}, nil
}

// ListAvailable 菜单展示用，只返回可售项。
func (r *Repo) ListAvailable(ctx context.Context, category string) ([]MenuItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := r.db.WithContext(ctx).Where("available = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []MenuItem
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
