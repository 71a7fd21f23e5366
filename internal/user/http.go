package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/auth"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/config"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
)

// HTTPHandler 注册/登录入口，签发携带角色的 access token。
type HTTPHandler struct {
	repo    *Repo
	authCfg config.AuthConfig
}

func NewHTTPHandler(repo *Repo, authCfg config.AuthConfig) *HTTPHandler {
	return &HTTPHandler{repo: repo, authCfg: authCfg}
}

func (h *HTTPHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/auth/register", h.register)
	g.POST("/auth/login", h.login)
	g.PUT("/users/:id/roles", h.updateRoles)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func (h *HTTPHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Nickname:     strings.TrimSpace(req.Nickname),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		// 自助注册只能拿到顾客角色，staff/admin 由运营侧发放
		Roles: auth.RoleCustomer,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Fail(c, http.StatusConflict, "username already taken")
			return
		}
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	server.Created(c, gin.H{"id": u.ID, "username": u.Username})
}

type updateRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

// updateRoles staff/admin 角色由管理员发放，自助注册改不了自己的角色。
func (h *HTTPHandler) updateRoles(c *gin.Context) {
	actor, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if !actor.IsAdmin() {
		server.Fail(c, http.StatusForbidden, "forbidden")
		return
	}

	var req updateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	for _, r := range req.Roles {
		switch strings.TrimSpace(strings.ToLower(r)) {
		case auth.RoleCustomer, auth.RoleStaff, auth.RoleAdmin:
		default:
			server.Fail(c, http.StatusBadRequest, "unknown role: "+r)
			return
		}
	}

	id := c.Param("id")
	if err := h.repo.UpdateRoles(c.Request.Context(), id, RolesJoin(req.Roles)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Fail(c, http.StatusNotFound, "user not found")
			return
		}
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	u, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	server.OK(c, gin.H{"id": u.ID, "username": u.Username, "roles": u.RolesSlice()})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *HTTPHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// 用户不存在与密码错误同语：不暴露账号是否存在
	u, err := h.repo.FindByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		server.Fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !VerifyPassword(req.Password, u.PasswordHash) {
		server.Fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, expiresAt, err := auth.GenerateAccessToken(h.authCfg, u.ID, u.RolesSlice(), 24*time.Hour)
	if err != nil {
		server.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	server.OK(c, gin.H{
		"access_token": token,
		"expires_at":   expiresAt,
		"user": gin.H{
			"id":       u.ID,
			"username": u.Username,
			"nickname": u.Nickname,
			"roles":    u.RolesSlice(),
		},
	})
}
