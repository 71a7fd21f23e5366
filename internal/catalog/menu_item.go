package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem 是 menu_items 表的 GORM 模型。
// 订单侧只消费 id -> {价格, 是否可售}，菜单管理本身不在本服务内展开。
type MenuItem struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Name        string          `gorm:"size:128;not null"`
	Description string          `gorm:"size:255"`
	Category    string          `gorm:"index;size:64"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available   bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

// Snapshot 下单时刻的菜品快照。
type Snapshot struct {
	Price     decimal.Decimal
	Available bool
}
