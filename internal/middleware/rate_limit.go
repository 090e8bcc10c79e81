package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/neurowallet/neurowallet/internal/identity"
)

const rateLimitPrefix = "rl:tx:"

// TransactionRateLimit caps the number of postings per caller per minute using a Redis
// counter with a one minute window. It fails open without Redis or when Redis errors.
func TransactionRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil || c.Method() != fiber.MethodPost {
			return c.Next()
		}
		subject := c.IP()
		if caller, ok := identity.FromContext(c.UserContext()); ok && !caller.Anonymous() {
			subject = caller.Subject
		}

		key := rateLimitPrefix + subject
		count, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("rate limit check failed", slog.String("subject", subject), slog.Any("error", err))
			return c.Next()
		}
		if count == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many transactions, try again later")
		}
		return c.Next()
	}
}
