package order

import (
	"fmt"
	"time"
)

// AllowTransition 定义订单状态机的允许流转关系。
// 取消可以从任意非终态发起；delivered / cancelled 为终态，不再流出。
var AllowTransition = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
// 同状态流转视为非法：调用方必须请求一次真实的变更，而不是静默无操作。
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对订单应用状态变更，并维护关键时间字段。
func ApplyTransition(o *Order, to Status, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	from := o.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	o.Status = to

	switch to {
	case StatusConfirmed:
		if o.ConfirmedAt == nil {
			t := now
			o.ConfirmedAt = &t
		}
	case StatusReady:
		if o.ReadyAt == nil {
			t := now
			o.ReadyAt = &t
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
		// 已收款订单被取消：标记退款意图，由支付侧落地
		if o.PaymentStatus == PaymentPaid {
			o.RefundRequested = true
		}
	}
	return nil
}
