package events

import (
	"context"
	"time"
)

// StatusChange 一次订单状态流转的观测记录，
// 供看板/报表侧消费：谁在什么时间把哪个订单从哪个状态改到了哪个状态。
type StatusChange struct {
	ID          string    `gorm:"primaryKey;size:36" json:"event_id"`
	OrderID     string    `gorm:"index;size:36;not null" json:"order_id"`
	OrderNumber string    `gorm:"size:32" json:"order_number"`
	FromStatus  string    `gorm:"size:16;not null" json:"from_status"`
	ToStatus    string    `gorm:"size:16;not null" json:"to_status"`
	ActorID     string    `gorm:"size:36;not null" json:"actor_id"`
	OccurredAt  time.Time `gorm:"index;not null" json:"occurred_at"`
}

func (StatusChange) TableName() string {
	return "order_status_events"
}

// Recorder 记录状态流转事件。实现方可以落库、发消息或两者兼有；
// 记录失败不阻塞订单流转本身。
type Recorder interface {
	RecordStatusChange(ctx context.Context, ev StatusChange) error
}
