package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/logger"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/order"
)

// Store 支付记录的持久化接口，由 *Repo 实现。
type Store interface {
	Create(ctx context.Context, p *Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
}

// OrderStore 支付用例需要的订单侧能力（读单 + 支付状态 CAS）。
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	UpdatePaymentCAS(ctx context.Context, id string, from, to order.PaymentStatus) error
}

// Service 处理网关回调：落支付记录、推进订单支付状态。
// 本服务只记录网关上报的结果，不与网关发生协议交互。
type Service struct {
	store  Store
	orders OrderStore
	log    logger.Logger
}

func NewService(store Store, orders OrderStore, log logger.Logger) *Service {
	return &Service{store: store, orders: orders, log: log}
}

// RecordInput 网关上报的一次支付结果。
type RecordInput struct {
	OrderID       string
	TransactionID string
	Amount        decimal.Decimal
	Status        GatewayStatus
	Method        string
	Details       map[string]interface{}
}

// Record 落库一条支付记录并按结果推进订单支付状态。
//
// completed 且金额与订单总额不一致时“软失败”：支付记录照常落库、
// 订单不置为已支付，返回 ErrAmountMismatch 留待人工对账。
// refunded 要求订单当前已支付，否则 ErrInvalidState。
func (s *Service) Record(ctx context.Context, in RecordInput) (*Payment, error) {
	if s == nil || s.store == nil || s.orders == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id required", ErrInvalidInput)
	}
	if in.TransactionID == "" {
		return nil, fmt.Errorf("%w: transaction_id required", ErrInvalidInput)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInput)
	}

	o, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	var details datatypes.JSON
	if len(in.Details) > 0 {
		raw, err := json.Marshal(in.Details)
		if err != nil {
			return nil, fmt.Errorf("%w: details: %v", ErrInvalidInput, err)
		}
		details = raw
	}

	p := &Payment{
		ID:            uuid.NewString(),
		OrderID:       in.OrderID,
		TransactionID: in.TransactionID,
		Amount:        in.Amount,
		Status:        in.Status,
		Method:        strings.TrimSpace(in.Method),
		Details:       details,
	}

	switch in.Status {
	case StatusCompleted:
		// 一单至多一条 completed：重复收款直接拒绝
		if o.PaymentStatus == order.PaymentPaid {
			return nil, fmt.Errorf("%w: order %s already paid", ErrInvalidState, o.OrderNumber)
		}
		now := time.Now()
		p.PaidAt = &now

		if !in.Amount.Equal(o.TotalAmount) {
			if err := s.store.Create(ctx, p); err != nil {
				return nil, err
			}
			if s.log != nil {
				s.log.Warnf("payment %s for order %s: amount %s does not match total %s",
					p.TransactionID, o.OrderNumber, in.Amount.StringFixed(2), o.TotalAmount.StringFixed(2))
			}
			return p, ErrAmountMismatch
		}

		if err := s.store.Create(ctx, p); err != nil {
			return nil, err
		}
		if err := s.orders.UpdatePaymentCAS(ctx, o.ID, order.PaymentPending, order.PaymentPaid); err != nil {
			return nil, err
		}
		return p, nil

	case StatusFailed:
		if err := s.store.Create(ctx, p); err != nil {
			return nil, err
		}
		return p, nil

	case StatusRefunded:
		if o.PaymentStatus != order.PaymentPaid {
			return nil, fmt.Errorf("%w: refund requires a paid order, current=%s", ErrInvalidState, o.PaymentStatus)
		}
		if err := s.store.Create(ctx, p); err != nil {
			return nil, err
		}
		if err := s.orders.UpdatePaymentCAS(ctx, o.ID, order.PaymentPaid, order.PaymentRefunded); err != nil {
			return nil, err
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: status must be one of completed/failed/refunded", ErrInvalidInput)
}

// ListByOrder 返回一个订单的全部支付记录。
func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id required", ErrInvalidInput)
	}
	return s.store.ListByOrder(ctx, orderID)
}
