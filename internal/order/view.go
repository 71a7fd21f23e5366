package order

import (
	"encoding/json"
	"time"
)

// orderView 对外展示的订单 DTO。金额统一两位小数字符串，避免 JSON 数字精度歧义。
type orderView struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	Status          Status          `json:"status"`
	OrderType       OrderType       `json:"order_type"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Subtotal        string          `json:"subtotal"`
	TaxAmount       string          `json:"tax_amount"`
	DeliveryFee     string          `json:"delivery_fee"`
	TotalAmount     string          `json:"total_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	RefundRequested bool            `json:"refund_requested,omitempty"`
	Items           []orderItemView `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type orderItemView struct {
	ID                  string            `json:"id"`
	MenuItemID          string            `json:"menu_item_id"`
	Quantity            int               `json:"quantity"`
	UnitPrice           string            `json:"unit_price"`
	TotalPrice          string            `json:"total_price"`
	Customizations      map[string]string `json:"customizations,omitempty"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`
}

func toOrderView(o *Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		var custom map[string]string
		if len(it.Customizations) > 0 {
			// 解析失败就按无定制展示，不阻断响应
			_ = json.Unmarshal(it.Customizations, &custom)
		}
		items = append(items, orderItemView{
			ID:                  it.ID,
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice.StringFixed(2),
			TotalPrice:          it.TotalPrice.StringFixed(2),
			Customizations:      custom,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return orderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		OrderType:       o.OrderType,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		Subtotal:        o.Subtotal.StringFixed(2),
		TaxAmount:       o.TaxAmount.StringFixed(2),
		DeliveryFee:     o.DeliveryFee.StringFixed(2),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		PaymentStatus:   o.PaymentStatus,
		RefundRequested: o.RefundRequested,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
