package events

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// DBRecorder 把状态流转事件写进 order_status_events 表。
type DBRecorder struct {
	db *gorm.DB
}

func NewDBRecorder(db *gorm.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

func (r *DBRecorder) RecordStatusChange(ctx context.Context, ev StatusChange) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("recorder db is nil")
	}
	return r.db.WithContext(ctx).Create(&ev).Error
}

// ListByOrder 报表侧按订单拉取流转历史。
func (r *DBRecorder) ListByOrder(ctx context.Context, orderID string) ([]StatusChange, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("recorder db is nil")
	}
	var out []StatusChange
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at").
		Find(&out).Error
	return out, err
}

// MultiRecorder 依次调用多个 Recorder，返回第一个错误（其余照常执行）。
type MultiRecorder []Recorder

func (m MultiRecorder) RecordStatusChange(ctx context.Context, ev StatusChange) error {
	var first error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordStatusChange(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
