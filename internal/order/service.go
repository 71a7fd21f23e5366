package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/catalog"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/auth"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/logger"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/events"
)

// 订单号冲突时的换号重试次数。唯一索引兜底，这里只是避免无谓的失败。
const orderNumberRetries = 3

// Store 订单持久化接口，由 *Repo 实现；拆成接口便于用内存假实现做用例测试。
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatusCAS(ctx context.Context, o *Order, from Status) error
	List(ctx context.Context, f ListFilter) ([]Order, int64, error)
	Delete(ctx context.Context, id string) error
}

// Catalog 菜单协作方：id -> {价格快照, 是否可售}。
type Catalog interface {
	Lookup(ctx context.Context, menuItemID string) (catalog.Snapshot, error)
}

// Service 封装订单域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	store    Store
	catalog  Catalog
	pricing  PricingPolicy
	recorder events.Recorder
	log      logger.Logger
}

func NewService(store Store, cat Catalog, pricing PricingPolicy, recorder events.Recorder, log logger.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		pricing:  pricing,
		recorder: recorder,
		log:      log,
	}
}

// CartLine 购物车里的一行。
type CartLine struct {
	MenuItemID          string
	Quantity            int
	Customizations      map[string]string
	SpecialInstructions string
}

// CreateInput 创建订单的入参（可作为传输层 DTO 的基础）。
type CreateInput struct {
	OrderType       OrderType
	DeliveryAddress string
	Notes           string
	Lines           []CartLine
}

// Create 校验购物车、按菜单快照定价、生成订单号并原子落库。
// 初始 status = pending、payment_status = pending。
func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*Order, error) {
	if s == nil || s.store == nil || s.catalog == nil || s.pricing == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, fmt.Errorf("%w: actor required", ErrInvalidInput)
	}
	if !ValidType(in.OrderType) {
		return nil, fmt.Errorf("%w: order_type must be one of dine_in/takeaway/delivery", ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrInvalidInput)
	}

	addr := strings.TrimSpace(in.DeliveryAddress)
	if in.OrderType == TypeDelivery && addr == "" {
		return nil, fmt.Errorf("%w: delivery_address required for delivery orders", ErrInvalidInput)
	}
	if in.OrderType != TypeDelivery && addr != "" {
		return nil, fmt.Errorf("%w: delivery_address only applies to delivery orders", ErrInvalidInput)
	}

	now := time.Now()
	orderID := uuid.NewString()

	subtotal := decimal.Zero
	items := make([]OrderItem, 0, len(in.Lines))
	for i, line := range in.Lines {
		if strings.TrimSpace(line.MenuItemID) == "" {
			return nil, fmt.Errorf("%w: items[%d].menu_item_id required", ErrInvalidInput, i)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: items[%d].quantity must be >= 1", ErrInvalidInput, i)
		}

		snap, err := s.catalog.Lookup(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: menu_item_id=%s: %v", ErrCatalogLookupFailed, line.MenuItemID, err)
		}
		if !snap.Available {
			return nil, fmt.Errorf("%w: menu_item_id=%s", ErrItemUnavailable, line.MenuItemID)
		}

		lineTotal := snap.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		var custom datatypes.JSON
		if len(line.Customizations) > 0 {
			raw, err := json.Marshal(line.Customizations)
			if err != nil {
				return nil, fmt.Errorf("%w: items[%d].customizations: %v", ErrInvalidInput, i, err)
			}
			custom = raw
		}

		items = append(items, OrderItem{
			ID:                  uuid.NewString(),
			OrderID:             orderID,
			MenuItemID:          line.MenuItemID,
			Quantity:            line.Quantity,
			UnitPrice:           snap.Price,
			TotalPrice:          lineTotal,
			Customizations:      custom,
			SpecialInstructions: strings.TrimSpace(line.SpecialInstructions),
		})
	}

	tax := s.pricing.Tax(subtotal)
	fee := s.pricing.DeliveryFee(in.OrderType)
	total := subtotal.Add(tax).Add(fee)

	o := &Order{
		ID:              orderID,
		UserID:          strings.TrimSpace(actor.UserID),
		Status:          StatusPending,
		OrderType:       in.OrderType,
		DeliveryAddress: addr,
		Notes:           strings.TrimSpace(in.Notes),
		Subtotal:        subtotal,
		TaxAmount:       tax,
		DeliveryFee:     fee,
		TotalAmount:     total,
		PaymentStatus:   PaymentPending,
		Items:           items,
	}

	// 订单号：唯一索引 + 换号重试，不指望一次随机就不撞
	var createErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		o.OrderNumber = NewOrderNumber(now)
		createErr = s.store.Create(ctx, o)
		if createErr == nil {
			return o, nil
		}
		if !errors.Is(createErr, errDuplicateOrderNumber) {
			return nil, createErr
		}
	}
	return nil, fmt.Errorf("%w: order number collision persisted", ErrPersistence)
}

// TransitionStatus 按状态机流转订单状态，仅 staff/admin 可操作。
// CAS 更新保证并发流转只有一个生效；成功后发出一条观测记录。
func (s *Service) TransitionStatus(ctx context.Context, actor auth.Identity, orderID string, target Status, now time.Time) (*Order, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id required", ErrInvalidInput)
	}

	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	next := *o
	if err := ApplyTransition(&next, target, now); err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatusCAS(ctx, &next, from); err != nil {
		return nil, err
	}

	// 政策性约束：送达时仍未支付，只告警不阻断
	if next.Status == StatusDelivered && next.PaymentStatus == PaymentPending {
		if s.log != nil {
			s.log.Warnf("order %s delivered with payment still pending", next.OrderNumber)
		}
	}

	if s.recorder != nil {
		ev := events.StatusChange{
			ID:          uuid.NewString(),
			OrderID:     next.ID,
			OrderNumber: next.OrderNumber,
			FromStatus:  string(from),
			ToStatus:    string(next.Status),
			ActorID:     actor.UserID,
			OccurredAt:  now,
		}
		if err := s.recorder.RecordStatusChange(ctx, ev); err != nil && s.log != nil {
			s.log.Warnf("failed to record status change for order %s: %v", next.ID, err)
		}
	}

	return &next, nil
}

// Get 读取单个订单；非 staff 只能看到自己的单，看不见的按不存在处理。
func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (*Order, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && o.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return o, nil
}

// List 列表查询。非 staff 强制只看自己的单。
func (s *Service) List(ctx context.Context, actor auth.Identity, f ListFilter) ([]Order, int64, error) {
	if s == nil || s.store == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	if !actor.IsStaff() {
		f.UserID = actor.UserID
	}
	return s.store.List(ctx, f)
}

// Destroy 管理员清理通道。常规业务走软取消，不物理删单。
func (s *Service) Destroy(ctx context.Context, actor auth.Identity, id string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}
