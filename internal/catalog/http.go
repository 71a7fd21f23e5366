package catalog

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
)

type HTTPHandler struct {
	repo *Repo
}

func NewHTTPHandler(repo *Repo) *HTTPHandler {
	return &HTTPHandler{repo: repo}
}

func (h *HTTPHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/menu", h.listMenu)
}

type menuItemView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       string    `json:"price"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *HTTPHandler) listMenu(c *gin.Context) {
	items, err := h.repo.ListAvailable(c.Request.Context(), strings.TrimSpace(c.Query("category")))
	if err != nil {
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	views := make([]menuItemView, 0, len(items))
	for _, m := range items {
		views = append(views, menuItemView{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Category:    m.Category,
			Price:       m.Price.StringFixed(2),
			UpdatedAt:   m.UpdatedAt,
		})
	}
	server.OK(c, gin.H{"items": views})
}
