package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/order"
)

type fakeStore struct {
	rows []Payment
}

func (f *fakeStore) Create(_ context.Context, p *Payment) error {
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakeStore) ListByOrder(_ context.Context, orderID string) ([]Payment, error) {
	var out []Payment
	for _, p := range f.rows {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOrderStore struct {
	orders map[string]*order.Order
}

func (f *fakeOrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) UpdatePaymentCAS(_ context.Context, id string, from, to order.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok || o.PaymentStatus != from {
		return order.ErrConflictRetry
	}
	o.PaymentStatus = to
	return nil
}

func fixture() (*Service, *fakeStore, *fakeOrderStore) {
	store := &fakeStore{}
	orders := &fakeOrderStore{orders: map[string]*order.Order{
		"o-1": {
			ID:            "o-1",
			OrderNumber:   "ORD-20260829-DEADBEEF",
			Status:        order.StatusConfirmed,
			TotalAmount:   decimal.RequireFromString("27.50"),
			PaymentStatus: order.PaymentPending,
		},
	}}
	return NewService(store, orders, nil), store, orders
}

func TestRecordCompletedMarksOrderPaid(t *testing.T) {
	svc, store, orders := fixture()

	p, err := svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("27.50"),
		Status:        StatusCompleted,
		Method:        "card",
	})
	require.NoError(t, err)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, order.PaymentPaid, orders.orders["o-1"].PaymentStatus)
	assert.Len(t, store.rows, 1)
}

func TestRecordCompletedAmountMismatchIsSoftFailure(t *testing.T) {
	svc, store, orders := fixture()

	p, err := svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("20.00"),
		Status:        StatusCompleted,
	})
	// 记录要落库，但订单不能置为已支付
	assert.ErrorIs(t, err, ErrAmountMismatch)
	require.NotNil(t, p)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, order.PaymentPending, orders.orders["o-1"].PaymentStatus)
}

func TestRecordSecondCompletedRejected(t *testing.T) {
	svc, store, _ := fixture()

	in := RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("27.50"),
		Status:        StatusCompleted,
	}
	_, err := svc.Record(context.Background(), in)
	require.NoError(t, err)

	in.TransactionID = "tx-2"
	_, err = svc.Record(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, store.rows, 1)
}

func TestRecordFailedOnlyPersists(t *testing.T) {
	svc, store, orders := fixture()

	p, err := svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("27.50"),
		Status:        StatusFailed,
	})
	require.NoError(t, err)
	assert.Nil(t, p.PaidAt)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, order.PaymentPending, orders.orders["o-1"].PaymentStatus)
}

func TestRecordRefundRequiresPaidOrder(t *testing.T) {
	svc, _, orders := fixture()

	refund := RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-r",
		Amount:        decimal.RequireFromString("27.50"),
		Status:        StatusRefunded,
	}
	_, err := svc.Record(context.Background(), refund)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("27.50"),
		Status:        StatusCompleted,
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), refund)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentRefunded, orders.orders["o-1"].PaymentStatus)
}

func TestRecordValidation(t *testing.T) {
	svc, _, _ := fixture()

	_, err := svc.Record(context.Background(), RecordInput{
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("1.00"),
		Status:        StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID: "o-1",
		Amount:  decimal.RequireFromString("1.00"),
		Status:  StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("-1.00"),
		Status:        StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID:       "o-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("1.00"),
		Status:        StatusPending,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID:       "o-missing",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("1.00"),
		Status:        StatusCompleted,
	})
	assert.ErrorIs(t, err, order.ErrNotFound)
}
