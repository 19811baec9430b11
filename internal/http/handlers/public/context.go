package public

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func getAccountID(c *gin.Context) (uint, bool) {
	value, ok := c.Get("account_id")
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

func getAccountEmail(c *gin.Context) (string, bool) {
	value, ok := c.Get("account_email")
	if !ok {
		return "", false
	}
	email, ok := value.(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", false
	}
	return email, true
}
