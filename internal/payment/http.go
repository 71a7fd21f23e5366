package payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/order"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/payments", h.record)
	g.GET("/orders/:id/payments", h.listByOrder)
}

type recordRequest struct {
	OrderID       string                 `json:"order_id" binding:"required"`
	TransactionID string                 `json:"transaction_id" binding:"required"`
	Amount        string                 `json:"amount" binding:"required"` // 两位小数字符串
	Status        string                 `json:"status" binding:"required"`
	Method        string                 `json:"payment_method"`
	Details       map[string]interface{} `json:"details"`
}

type paymentView struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	TransactionID string     `json:"transaction_id"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	Method        string     `json:"payment_method,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toView(p *Payment) paymentView {
	return paymentView{
		ID:            p.ID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount.StringFixed(2),
		Status:        string(p.Status),
		Method:        p.Method,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}

func (h *HTTPHandler) record(c *gin.Context) {
	if _, ok := server.IdentityFromContext(c); !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		server.Fail(c, http.StatusBadRequest, "amount must be a decimal string")
		return
	}

	p, err := h.svc.Record(c.Request.Context(), RecordInput{
		OrderID:       req.OrderID,
		TransactionID: req.TransactionID,
		Amount:        amount,
		Status:        GatewayStatus(req.Status),
		Method:        req.Method,
		Details:       req.Details,
	})
	if err != nil {
		// 软失败：记录已落库，提示人工对账
		if errors.Is(err, ErrAmountMismatch) && p != nil {
			server.Accepted(c, "amount mismatch, pending manual review", toView(p))
			return
		}
		failPaymentError(c, err)
		return
	}
	server.Created(c, toView(p))
}

func (h *HTTPHandler) listByOrder(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if !actor.IsStaff() {
		server.Fail(c, http.StatusForbidden, "forbidden")
		return
	}

	payments, err := h.svc.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		failPaymentError(c, err)
		return
	}
	views := make([]paymentView, 0, len(payments))
	for i := range payments {
		views = append(views, toView(&payments[i]))
	}
	server.OK(c, gin.H{"payments": views})
}

func failPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		server.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		server.Fail(c, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrInvalidState):
		server.Fail(c, http.StatusConflict, "invalid payment state")
	case errors.Is(err, order.ErrConflictRetry):
		server.Fail(c, http.StatusConflict, "concurrent update, please retry")
	default:
		server.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
