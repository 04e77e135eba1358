package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewAuthRateLimitMiddleware limits the operator login route to 10
// attempts per minute per IP. There is exactly one credential on this
// service, so guessing it has to be slow; the general API limiter is
// far too loose for a password prompt.
func NewAuthRateLimitMiddleware() gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  10,
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}
