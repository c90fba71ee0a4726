package middleware

import (
	"github.com/gin-gonic/gin"
)

// extractOwnerRef extracts the owning reference id from the request based on a rule
func extractOwnerRef(c *gin.Context, source string, paramName string) string {
	switch source {
	case "path":
		return c.Param(paramName)
	case "query":
		return c.Query(paramName)
	}
	return ""
}
