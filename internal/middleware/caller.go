package middleware

import (
	"github.com/gin-gonic/gin"
)

// HeaderCallerAccount identifies the account submitting the operation. The
// engine itself authorizes against the market's configured admin identity;
// the transport only carries the claim of who is calling.
const HeaderCallerAccount = "X-Caller-Account"

const ContextCallerKey = "caller_account"

func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextCallerKey, c.GetHeader(HeaderCallerAccount))
		c.Next()
	}
}

// Caller returns the caller account bound to the request, possibly empty.
func Caller(c *gin.Context) string {
	return c.GetString(ContextCallerKey)
}
