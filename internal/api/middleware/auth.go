package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmeeeeedddddd/Studify/pkg/response"
)

// UserIDHeader 网关在完成认证后注入的调用方身份头
const UserIDHeader = "X-User-ID"

const userIDMaxLen = 64

// GatewayIdentity 调用方身份中间件
// 认证由上游网关完成，本服务只信任 X-User-ID 并注入 user_id
func GatewayIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if uid == "" {
			response.Unauthorized(c, 10002, "缺少调用方身份")
			c.Abort()
			return
		}
		if len(uid) > userIDMaxLen || !validHeaderToken(uid) {
			response.Unauthorized(c, 10002, "调用方身份格式无效")
			c.Abort()
			return
		}

		c.Set("user_id", uid)
		c.Next()
	}
}

// validHeaderToken 仅允许字母、数字与 - _ . @
func validHeaderToken(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.' || ch == '@':
		default:
			return false
		}
	}
	return true
}
