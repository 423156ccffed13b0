package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ahmeeeeedddddd/Studify/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果身份中间件未注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetParam 提取非空路径参数
func MustGetParam(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, name+" 不能为空")
		return "", false
	}
	return v, true
}

// MustGetPositiveIntParam 提取正整数路径参数
func MustGetPositiveIntParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		response.BadRequest(c, 10001, name+" 必须为正整数")
		return 0, false
	}
	return n, true
}
