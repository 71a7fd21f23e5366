package payment

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, p *Payment) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// ListByOrder 按订单取全部支付记录（重试/退款都在内），时间正序。
func (r *Repo) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var out []Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}
