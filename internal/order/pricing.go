package order

import (
	"github.com/shopspring/decimal"
)

// PricingPolicy 计算税费与配送费。税率/费率是配置项，不写死在引擎里；
// 但 total = subtotal + tax + delivery 的算术约定由引擎保证。
type PricingPolicy interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
	DeliveryFee(orderType OrderType) decimal.Decimal
}

// FlatPricing 固定税率 + 固定配送费（非配送单配送费为 0）。
type FlatPricing struct {
	// 税率，基点表示：1000 = 10%
	TaxRateBps int64
	// 配送费，单位分：500 = 5.00
	DeliveryFeeCents int64
}

func (p FlatPricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	rate := decimal.New(p.TaxRateBps, -4) // bps -> 比例
	return subtotal.Mul(rate).Round(2)
}

func (p FlatPricing) DeliveryFee(orderType OrderType) decimal.Decimal {
	if orderType != TypeDelivery {
		return decimal.Zero.Round(2)
	}
	return decimal.New(p.DeliveryFeeCents, -2)
}
