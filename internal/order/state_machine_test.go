package order

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusPending, StatusConfirmed) {
		t.Fatalf("expected pending -> confirmed allowed")
	}
	if !CanTransition(StatusReady, StatusDelivered) {
		t.Fatalf("expected ready -> delivered allowed")
	}
	if !CanTransition(StatusPreparing, StatusCancelled) {
		t.Fatalf("expected preparing -> cancelled allowed")
	}
	// 跳级
	if CanTransition(StatusPending, StatusPreparing) {
		t.Fatalf("expected pending -> preparing (skipping confirmed) rejected")
	}
	// 终态不再流出
	if CanTransition(StatusDelivered, StatusCancelled) {
		t.Fatalf("expected delivered terminal")
	}
	if CanTransition(StatusCancelled, StatusPending) {
		t.Fatalf("expected cancelled terminal")
	}
	// 同状态流转不是静默 no-op
	if CanTransition(StatusConfirmed, StatusConfirmed) {
		t.Fatalf("expected self-transition rejected")
	}
	if CanTransition(Status("bogus"), StatusConfirmed) {
		t.Fatalf("expected unknown status rejected")
	}
}

func TestApplyTransition(t *testing.T) {
	o := &Order{Status: StatusPending, PaymentStatus: PaymentPending}
	now := time.Now()

	if err := ApplyTransition(o, StatusConfirmed, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.Status != StatusConfirmed {
		t.Fatalf("expected status confirmed, got %s", o.Status)
	}
	if o.ConfirmedAt == nil {
		t.Fatalf("expected confirmed_at stamped")
	}

	err := ApplyTransition(o, StatusDelivered, now)
	if err == nil {
		t.Fatalf("expected invalid shortcut transition to fail")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyTransitionCancelFlagsRefundForPaidOrder(t *testing.T) {
	now := time.Now()

	paid := &Order{Status: StatusConfirmed, PaymentStatus: PaymentPaid}
	if err := ApplyTransition(paid, StatusCancelled, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if !paid.RefundRequested {
		t.Fatalf("expected refund_requested for cancelled paid order")
	}
	if paid.CancelledAt == nil {
		t.Fatalf("expected cancelled_at stamped")
	}

	unpaid := &Order{Status: StatusConfirmed, PaymentStatus: PaymentPending}
	if err := ApplyTransition(unpaid, StatusCancelled, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if unpaid.RefundRequested {
		t.Fatalf("unpaid order must not request refund")
	}
}

func TestApplyTransitionRejectsFromTerminal(t *testing.T) {
	now := time.Now()
	for _, from := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled} {
			o := &Order{Status: from}
			if err := ApplyTransition(o, to, now); err == nil {
				t.Fatalf("expected %s -> %s rejected", from, to)
			}
		}
	}
}
