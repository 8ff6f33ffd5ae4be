package middlewares

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per client IP kept in redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimiterFromEnv reads RATE_LIMIT_ENABLED, RATE_LIMIT_MAX_REQUESTS and
// RATE_LIMIT_WINDOW_SECONDS. It returns nil when disabled.
func RateLimiterFromEnv() *RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return NewRateLimiter(nil, limit, time.Duration(windowSec)*time.Second)
}

// Middleware counts requests per IP. Requests pass through while redis is
// not connected.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := rl.client
		if client == nil {
			client = config.GetRedisDB()
		}
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rate_limit:" + c.ClientIP()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			config.LogError(config.GetLogger(), "RateLimiter", "Middleware", "incr", key, err)
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, rl.window).Err(); err != nil {
				config.LogError(config.GetLogger(), "RateLimiter", "Middleware", "expire", key, err)
			}
		}
		if count > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			utils.RespondError(c, &utils.AppError{
				Code:    utils.CodeRateLimited,
				Message: fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
				Status:  http.StatusTooManyRequests,
			})
			return
		}
		c.Next()
	}
}
