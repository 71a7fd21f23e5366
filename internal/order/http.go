package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
)

// HTTPHandler 订单域的 HTTP 入口，薄壳：解析/校验请求，转调 Service。
type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// RegisterRoutes 挂载订单路由。
func (h *HTTPHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/orders", h.create)
	g.GET("/orders", h.list)
	g.GET("/orders/:id", h.get)
	g.PUT("/orders/:id/status", h.updateStatus)
	g.DELETE("/orders/:id", h.destroy)
}

type createItemRequest struct {
	MenuItemID          string            `json:"menu_item_id" binding:"required"`
	Quantity            int               `json:"quantity" binding:"required,min=1"`
	Customizations      map[string]string `json:"customizations"`
	SpecialInstructions string            `json:"special_instructions"`
}

type createOrderRequest struct {
	OrderType       string              `json:"order_type" binding:"required"`
	DeliveryAddress string              `json:"delivery_address"`
	Notes           string              `json:"notes"`
	Items           []createItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *HTTPHandler) create(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := CreateInput{
		OrderType:       OrderType(strings.TrimSpace(req.OrderType)),
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Lines:           make([]CartLine, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Lines = append(in.Lines, CartLine{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			Customizations:      it.Customizations,
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	o, err := h.svc.Create(c.Request.Context(), actor, in)
	if err != nil {
		failOrderError(c, err)
		return
	}
	server.Created(c, toOrderView(o))
}

func (h *HTTPHandler) list(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	f := ListFilter{}
	if st := strings.TrimSpace(c.Query("status")); st != "" {
		f.Status = Status(st)
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			server.Fail(c, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		f.From = &t
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			server.Fail(c, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		f.To = &t
	}
	page := intQuery(c, "page", 1)
	size := intQuery(c, "page_size", 20)
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	f.Offset = (page - 1) * size
	f.Limit = size

	orders, total, err := h.svc.List(c.Request.Context(), actor, f)
	if err != nil {
		failOrderError(c, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	server.OK(c, gin.H{"orders": views, "total": total})
}

func (h *HTTPHandler) get(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	o, err := h.svc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		failOrderError(c, err)
		return
	}
	server.OK(c, toOrderView(o))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *HTTPHandler) updateStatus(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o, err := h.svc.TransitionStatus(c.Request.Context(), actor, c.Param("id"),
		Status(strings.TrimSpace(req.Status)), time.Now())
	if err != nil {
		failOrderError(c, err)
		return
	}
	server.OK(c, toOrderView(o))
}

func (h *HTTPHandler) destroy(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.svc.Destroy(c.Request.Context(), actor, c.Param("id")); err != nil {
		failOrderError(c, err)
		return
	}
	server.OK(c, nil)
}

// failOrderError 统一把订单域错误映射为 HTTP 状态码。
// 校验错误带字段细节；鉴权/状态机错误只给原因码，不泄露内部状态。
func failOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		server.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCatalogLookupFailed), errors.Is(err, ErrItemUnavailable):
		server.Fail(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrForbidden):
		server.Fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrNotFound):
		server.Fail(c, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrInvalidTransition):
		server.Fail(c, http.StatusConflict, "invalid status transition")
	case errors.Is(err, ErrConflictRetry):
		server.Fail(c, http.StatusConflict, "concurrent update, please retry")
	default:
		server.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
