package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/auth"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/config"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/logger"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/middleware"
)

const identityKey = "auth.identity"

// IdentityFromContext 取出鉴权中间件写入的身份；未鉴权时 ok = false。
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// Recovery 防止 panic 打崩进程，并记录栈信息。
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Errorf("panic in %s %s err=%v stack=%s",
						c.Request.Method, c.Request.URL.Path, r, string(debug.Stack()))
				}
				Fail(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}

// AccessLog 记录每个 HTTP 请求的耗时/状态码。
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		cost := time.Since(start)

		if log == nil {
			return
		}
		fields := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"cost":   cost.String(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.WithFields(fields).Warn("http request failed")
		} else {
			log.WithFields(fields).Info("http request ok")
		}
	}
}

// Tracing 基于 OpenTracing 的最小 HTTP 中间件：
// 从请求头提取上游 span context，创建 server span 并注入 request ctx。
func Tracing(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()

		var parent opentracing.SpanContext
		if sc, err := tracer.Extract(opentracing.HTTPHeaders,
			opentracing.HTTPHeadersCarrier(c.Request.Header)); err == nil {
			parent = sc
		}

		operation := c.Request.Method + " " + c.FullPath()
		var span opentracing.Span
		if parent != nil {
			span = tracer.StartSpan(operation, ext.RPCServerOption(parent))
		} else {
			span = tracer.StartSpan(operation)
		}
		defer span.Finish()

		ext.SpanKindRPCServer.Set(span)
		ext.HTTPMethod.Set(span, c.Request.Method)
		ext.HTTPUrl.Set(span, c.Request.URL.Path)
		if serviceName != "" {
			span.SetTag("service", serviceName)
		}

		c.Request = c.Request.WithContext(
			opentracing.ContextWithSpan(c.Request.Context(), span))
		c.Next()

		ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
	}
}

// JWTAuth 解析 `Authorization: Bearer <token>`，把身份写入请求上下文。
// cfg.PublicPaths 中的 "METHOD /path" 免鉴权。
func JWTAuth(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}
		if isPublicPath(cfg.PublicPaths, c.Request.Method, c.FullPath()) {
			c.Next()
			return
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			if log != nil {
				log.Warn("auth enabled but jwt_secret is empty")
			}
			Abort(c, http.StatusUnauthorized, "auth not configured")
			return
		}

		raw := c.GetHeader("Authorization")
		if raw == "" {
			Abort(c, http.StatusUnauthorized, "missing authorization")
			return
		}
		tokenStr := strings.TrimSpace(raw)
		if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
		}

		claims, err := auth.ParseAccessToken(cfg, tokenStr)
		if err != nil {
			Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(identityKey, auth.Identity{
			UserID: claims.Subject,
			Roles:  claims.Roles,
		})
		c.Next()
	}
}

// RateLimit 入口限流：令牌不足直接 429。
func RateLimit(limiter middleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.Request.Context()) {
			Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func isPublicPath(public []string, method, fullPath string) bool {
	if fullPath == "" || len(public) == 0 {
		return false
	}
	want := fmt.Sprintf("%s %s", method, fullPath)
	for _, p := range public {
		if strings.TrimSpace(p) == want {
			return true
		}
	}
	return false
}
