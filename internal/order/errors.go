package order

import "errors"

// 订单域错误分类。调用方统一用 errors.Is 判断：
// 传输层据此映射 HTTP 状态码，业务层不关心状态码。
var (
	ErrInvalidInput        = errors.New("invalid order input")
	ErrCatalogLookupFailed = errors.New("catalog lookup failed")
	ErrItemUnavailable     = errors.New("menu item unavailable")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrConflictRetry       = errors.New("concurrent update conflict, retry")
	ErrNotFound            = errors.New("order not found")
	ErrPersistence         = errors.New("order persistence failed")
)
