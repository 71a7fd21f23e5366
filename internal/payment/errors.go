package payment

import "errors"

var (
	// ErrInvalidState 支付状态不满足前置条件（如未支付就退款、重复收款）。
	ErrInvalidState = errors.New("invalid payment state")
	// ErrAmountMismatch 软性告警：金额对不上，支付记录照常落库，留待人工对账。
	ErrAmountMismatch = errors.New("payment amount mismatch")
	ErrInvalidInput   = errors.New("invalid payment input")
	ErrPersistence    = errors.New("payment persistence failed")
)
