package order

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status 订单状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending   Status = "pending"   // 已提交，待商家确认
	StatusConfirmed Status = "confirmed" // 商家已确认，待备餐
	StatusPreparing Status = "preparing" // 备餐中
	StatusReady     Status = "ready"     // 出餐完成，待取餐/配送
	StatusDelivered Status = "delivered" // 已送达/已交付（终态）
	StatusCancelled Status = "cancelled" // 已取消（终态）
)

// OrderType 下单方式，创建后不可变更。
type OrderType string

const (
	TypeDineIn   OrderType = "dine_in"
	TypeTakeaway OrderType = "takeaway"
	TypeDelivery OrderType = "delivery"
)

// ValidType 校验下单方式是否在枚举范围内。
func ValidType(t OrderType) bool {
	switch t {
	case TypeDineIn, TypeTakeaway, TypeDelivery:
		return true
	}
	return false
}

// PaymentStatus 订单支付状态，与订单状态独立演进。
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order 订单 GORM 模型。
// 金额一律使用 decimal(10,2)，不允许浮点数参与运算。
type Order struct {
	ID          string `gorm:"primaryKey;size:36"`
	OrderNumber string `gorm:"uniqueIndex;size:32;not null"` // 对外展示的订单号

	UserID    string    `gorm:"index;size:36;not null"` // 下单用户
	Status    Status    `gorm:"type:varchar(16);index;not null"`
	OrderType OrderType `gorm:"type:varchar(16);not null"`

	// 仅 order_type = delivery 时填写
	DeliveryAddress string `gorm:"size:255"`
	Notes           string `gorm:"size:255"`

	// 金额明细，不变式：total_amount = subtotal + tax_amount + delivery_fee
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(16);index;not null"`
	// 已支付订单被取消时置位，实际退款由支付侧执行
	RefundRequested bool `gorm:"not null;default:false"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	ConfirmedAt *time.Time
	ReadyAt     *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// Terminal 判断订单是否处于终态。
func (o *Order) Terminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// OrderItem 订单明细。创建后不可修改：改数量等同于重新下单。
// unit_price 是下单时刻的菜品价格快照，后续菜单调价不回溯历史订单。
type OrderItem struct {
	ID         string `gorm:"primaryKey;size:36"`
	OrderID    string `gorm:"index;size:36;not null"`
	MenuItemID string `gorm:"index;size:36;not null"`

	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// total_price = unit_price * quantity
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Customizations      datatypes.JSON `gorm:"type:json"` // 口味/规格等自由键值
	SpecialInstructions string         `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
