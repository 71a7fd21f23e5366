package auth

import "strings"

// 系统内的三种角色。staff/admin 可以操作订单状态流转，admin 额外可以删单。
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Identity 一次请求的最小身份事实（id + 角色），
// 由鉴权层解析后显式传入各业务操作，不依赖任何全局会话状态。
type Identity struct {
	UserID string
	Roles  []string
}

// HasRole 判断是否含有指定角色（忽略大小写与空白）。
func (id Identity) HasRole(role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	for _, r := range id.Roles {
		if strings.TrimSpace(strings.ToLower(r)) == role {
			return true
		}
	}
	return false
}

// IsStaff staff 或 admin 都算工作人员。
func (id Identity) IsStaff() bool {
	return id.HasRole(RoleStaff) || id.HasRole(RoleAdmin)
}

func (id Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}
