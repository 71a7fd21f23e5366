package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// errDuplicateOrderNumber 订单号撞了唯一索引，由 Service 换号重试。
var errDuplicateOrderNumber = errors.New("duplicate order number")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// Create 持久化订单与全部明细。gorm 级联创建在单个事务内完成，
// 不会出现“有单无明细”的中间态。
func (r *Repo) Create(ctx context.Context, o *Order) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if err := db.Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errDuplicateOrderNumber
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Order, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var o Order
	if err := db.Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &o, nil
}

// UpdateStatusCAS 以“当前状态”为前置条件做一次比较更新。
// WHERE status = from 保证两个并发流转只有一个生效，输掉的一方拿到 ErrConflictRetry。
func (r *Repo) UpdateStatusCAS(ctx context.Context, o *Order, from Status) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	updates := map[string]interface{}{
		"status":           o.Status,
		"refund_requested": o.RefundRequested,
		"confirmed_at":     o.ConfirmedAt,
		"ready_at":         o.ReadyAt,
		"delivered_at":     o.DeliveredAt,
		"cancelled_at":     o.CancelledAt,
	}
	res := db.Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflictRetry
	}
	return nil
}

// UpdatePaymentCAS 支付状态的比较更新，前置条件同理。
func (r *Repo) UpdatePaymentCAS(ctx context.Context, id string, from, to PaymentStatus) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflictRetry
	}
	return nil
}

// ListFilter 查询条件。UserID 为空表示不按归属过滤（仅限 staff/admin 走到这里）。
type ListFilter struct {
	UserID string
	Status Status
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := db.Model(&Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var orders []Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return orders, total, nil
}

// Delete 管理员清理用：同事务删除订单与明细。
func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderItem{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		res := tx.Where("id = ?", id).Delete(&Order{})
		if res.Error != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
