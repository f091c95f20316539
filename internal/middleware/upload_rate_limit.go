package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
)

// UploadRateLimit caps the number of multipart uploads a user can make per
// day. It must run after Auth; anonymous requests and requests without a
// multipart body are not counted.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.UploadRateLimitPerDay <= 0 || !isMultipart(c) {
			c.Next()
			return
		}

		userID, ok := c.Get(ContextUserID)
		if !ok {
			c.Next()
			return
		}
		id, ok := userID.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		// Rate limit key: upload_limit:{user_id}:{date}, reset at midnight
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", id.String(), now.Format("2006-01-02"))

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("upload limiter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			redisClient.Expire(ctx, key, midnight.Sub(now))
		}

		if count > int64(cfg.UploadRateLimitPerDay) {
			abort(c, http.StatusTooManyRequests, "too many uploads today, please try again tomorrow")
			return
		}

		c.Next()
	}
}

func isMultipart(c *gin.Context) bool {
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
		return false
	}
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
