package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GatewayStatus 网关侧上报的支付结果。
type GatewayStatus string

const (
	StatusPending   GatewayStatus = "pending"
	StatusCompleted GatewayStatus = "completed"
	StatusFailed    GatewayStatus = "failed"
	StatusRefunded  GatewayStatus = "refunded"
)

// Payment 记录一次支付尝试/结果。同一订单允许多条（重试），
// 正常情况下至多一条 completed。
type Payment struct {
	ID      string `gorm:"primaryKey;size:36"`
	OrderID string `gorm:"index;size:36;not null"`

	TransactionID string          `gorm:"uniqueIndex;size:64;not null"` // 网关流水号
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status        GatewayStatus   `gorm:"type:varchar(16);index;not null"`
	Method        string          `gorm:"size:32"`

	PaidAt  *time.Time     // 仅 completed 时写入
	Details datatypes.JSON `gorm:"type:json"` // 网关透传的原始元数据

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
