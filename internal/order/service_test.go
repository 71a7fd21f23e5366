package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/catalog"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/auth"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/events"
)

// fakeStore 内存版 Store：行为对齐 gorm 实现（订单号唯一、CAS 按当前状态比较）。
type fakeStore struct {
	mu      sync.Mutex
	orders  map[string]*Order
	numbers map[string]bool

	// 强制前 N 次 Create 撞订单号，测试换号重试
	dupFirst int
	// GetByID 返回后的回调，用来模拟并发交错
	afterGet func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[string]*Order),
		numbers: make(map[string]bool),
	}
}

func (s *fakeStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dupFirst > 0 {
		s.dupFirst--
		return errDuplicateOrderNumber
	}
	if s.numbers[o.OrderNumber] {
		return errDuplicateOrderNumber
	}
	s.numbers[o.OrderNumber] = true
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	o, ok := s.orders[id]
	var cp Order
	if ok {
		cp = *o
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.afterGet != nil {
		s.afterGet()
	}
	return &cp, nil
}

func (s *fakeStore) UpdateStatusCAS(_ context.Context, o *Order, from Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok || cur.Status != from {
		return ErrConflictRetry
	}
	cur.Status = o.Status
	cur.RefundRequested = o.RefundRequested
	cur.ConfirmedAt = o.ConfirmedAt
	cur.ReadyAt = o.ReadyAt
	cur.DeliveredAt = o.DeliveredAt
	cur.CancelledAt = o.CancelledAt
	return nil
}

func (s *fakeStore) List(_ context.Context, f ListFilter) ([]Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

type fakeCatalog map[string]catalog.Snapshot

func (f fakeCatalog) Lookup(_ context.Context, id string) (catalog.Snapshot, error) {
	snap, ok := f[id]
	if !ok {
		return catalog.Snapshot{}, catalog.ErrNotFound
	}
	return snap, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []events.StatusChange
}

func (f *fakeRecorder) RecordStatusChange(_ context.Context, ev events.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func snap(price string, available bool) catalog.Snapshot {
	return catalog.Snapshot{Price: decimal.RequireFromString(price), Available: available}
}

func testService(store *fakeStore, cat fakeCatalog, rec events.Recorder) *Service {
	return NewService(store, cat, FlatPricing{TaxRateBps: 1000, DeliveryFeeCents: 500}, rec, nil)
}

var (
	customer = auth.Identity{UserID: "u-customer", Roles: []string{auth.RoleCustomer}}
	staff    = auth.Identity{UserID: "u-staff", Roles: []string{auth.RoleStaff}}
	admin    = auth.Identity{UserID: "u-admin", Roles: []string{auth.RoleAdmin}}
)

func TestCreateComputesTotals(t *testing.T) {
	store := newFakeStore()
	cat := fakeCatalog{
		"m-1": snap("10.00", true),
		"m-2": snap("5.00", true),
	}
	svc := testService(store, cat, nil)

	o, err := svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDineIn,
		Lines: []CartLine{
			{MenuItemID: "m-1", Quantity: 2},
			{MenuItemID: "m-2", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "25.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "2.50", o.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.00", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, "27.50", o.TotalAmount.StringFixed(2))
	// 不变式：total = subtotal + tax + delivery，对齐到分
	assert.True(t, o.TotalAmount.Equal(o.Subtotal.Add(o.TaxAmount).Add(o.DeliveryFee)))

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, "10.00", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "20.00", o.Items[0].TotalPrice.StringFixed(2))
	assert.Contains(t, o.OrderNumber, "ORD-")
}

func TestCreateDeliveryAddressRules(t *testing.T) {
	cat := fakeCatalog{"m-1": snap("10.00", true)}
	svc := testService(newFakeStore(), cat, nil)
	lines := []CartLine{{MenuItemID: "m-1", Quantity: 1}}

	_, err := svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDelivery,
		Lines:     lines,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDelivery,
		// 纯空白地址等同缺失
		DeliveryAddress: "   ",
		Lines:           lines,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType:       TypeDineIn,
		DeliveryAddress: "12 Harbor St",
		Lines:           lines,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	o, err := svc.Create(context.Background(), customer, CreateInput{
		OrderType:       TypeDelivery,
		DeliveryAddress: "12 Harbor St",
		Lines:           lines,
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, "16.00", o.TotalAmount.StringFixed(2)) // 10.00 + 1.00 + 5.00
}

func TestCreateRejectsBadCart(t *testing.T) {
	cat := fakeCatalog{
		"m-ok":  snap("10.00", true),
		"m-off": snap("8.00", false),
	}
	svc := testService(newFakeStore(), cat, nil)

	_, err := svc.Create(context.Background(), customer, CreateInput{OrderType: TypeDineIn})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDineIn,
		Lines:     []CartLine{{MenuItemID: "m-ok", Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: "drive_through",
		Lines:     []CartLine{{MenuItemID: "m-ok", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDineIn,
		Lines:     []CartLine{{MenuItemID: "m-missing", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrCatalogLookupFailed)

	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeDineIn,
		Lines:     []CartLine{{MenuItemID: "m-off", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestCreateRetriesOrderNumberCollision(t *testing.T) {
	store := newFakeStore()
	store.dupFirst = 2 // 前两次撞号，第三次成功
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)

	o, err := svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeTakeaway,
		Lines:     []CartLine{{MenuItemID: "m-1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.OrderNumber)

	store = newFakeStore()
	store.dupFirst = orderNumberRetries // 次次撞号，放弃
	svc = testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	_, err = svc.Create(context.Background(), customer, CreateInput{
		OrderType: TypeTakeaway,
		Lines:     []CartLine{{MenuItemID: "m-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestCreateConcurrentOrderNumbersUnique(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)

	const n = 100
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := auth.Identity{UserID: fmt.Sprintf("u-%d", i), Roles: []string{auth.RoleCustomer}}
			_, errs[i] = svc.Create(context.Background(), actor, CreateInput{
				OrderType: TypeTakeaway,
				Lines:     []CartLine{{MenuItemID: "m-1", Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}
	seen := make(map[string]bool, n)
	for _, o := range store.orders {
		assert.False(t, seen[o.OrderNumber], "duplicate order number %s", o.OrderNumber)
		seen[o.OrderNumber] = true
	}
	assert.Len(t, seen, n)
}

func mustCreate(t *testing.T, svc *Service, actor auth.Identity) *Order {
	t.Helper()
	o, err := svc.Create(context.Background(), actor, CreateInput{
		OrderType: TypeDineIn,
		Lines:     []CartLine{{MenuItemID: "m-1", Quantity: 1}},
	})
	require.NoError(t, err)
	return o
}

func TestTransitionStatusRequiresStaff(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	o := mustCreate(t, svc, customer)

	_, err := svc.TransitionStatus(context.Background(), customer, o.ID, StatusConfirmed, time.Now())
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.TransitionStatus(context.Background(), staff, o.ID, StatusConfirmed, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestTransitionStatusEmitsEvent(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, rec)
	o := mustCreate(t, svc, customer)

	_, err := svc.TransitionStatus(context.Background(), staff, o.ID, StatusConfirmed, time.Now())
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, string(StatusPending), ev.FromStatus)
	assert.Equal(t, string(StatusConfirmed), ev.ToStatus)
	assert.Equal(t, staff.UserID, ev.ActorID)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestTransitionStatusRejectsIllegalTargets(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	o := mustCreate(t, svc, customer)

	// pending -> preparing 跳级
	_, err := svc.TransitionStatus(context.Background(), staff, o.ID, StatusPreparing, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 同状态
	_, err = svc.TransitionStatus(context.Background(), staff, o.ID, StatusPending, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 走完整条主链后订单进入终态，再流转一律被拒
	for _, next := range []Status{StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered} {
		_, err = svc.TransitionStatus(context.Background(), staff, o.ID, next, time.Now())
		require.NoError(t, err)
	}
	_, err = svc.TransitionStatus(context.Background(), staff, o.ID, StatusCancelled, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.TransitionStatus(context.Background(), staff, "missing", StatusConfirmed, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionStatusConflictOnStaleState(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	o := mustCreate(t, svc, customer)

	// 模拟交错：读到 pending 之后，另一个操作者先把状态推进了
	fired := false
	store.afterGet = func() {
		if fired {
			return
		}
		fired = true
		store.mu.Lock()
		store.orders[o.ID].Status = StatusConfirmed
		store.mu.Unlock()
	}

	_, err := svc.TransitionStatus(context.Background(), staff, o.ID, StatusConfirmed, time.Now())
	assert.ErrorIs(t, err, ErrConflictRetry)

	// 重试方基于新状态成功
	store.afterGet = nil
	got, err := svc.TransitionStatus(context.Background(), staff, o.ID, StatusPreparing, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, got.Status)
}

func TestGetAndListScoping(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	mine := mustCreate(t, svc, customer)
	other := auth.Identity{UserID: "u-other", Roles: []string{auth.RoleCustomer}}
	theirs := mustCreate(t, svc, other)

	got, err := svc.Get(context.Background(), customer, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	// 他人的订单对非 staff 一律按不存在处理
	_, err = svc.Get(context.Background(), customer, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), staff, theirs.ID)
	require.NoError(t, err)

	orders, total, err := svc.List(context.Background(), customer, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ID, orders[0].ID)

	_, total, err = svc.List(context.Background(), staff, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestDestroyRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, fakeCatalog{"m-1": snap("10.00", true)}, nil)
	o := mustCreate(t, svc, customer)

	assert.ErrorIs(t, svc.Destroy(context.Background(), staff, o.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Destroy(context.Background(), customer, o.ID), ErrForbidden)

	require.NoError(t, svc.Destroy(context.Background(), admin, o.ID))
	_, err := svc.Get(context.Background(), admin, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
