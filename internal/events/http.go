package events

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
)

// HTTPHandler 状态流转历史查询（运营看板用，仅 staff/admin）。
type HTTPHandler struct {
	rec *DBRecorder
}

func NewHTTPHandler(rec *DBRecorder) *HTTPHandler {
	return &HTTPHandler{rec: rec}
}

func (h *HTTPHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/orders/:id/events", h.listByOrder)
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

	changes, err := h.rec.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	server.OK(c, gin.H{"events": changes})
}
