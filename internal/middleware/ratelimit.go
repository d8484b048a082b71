package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"beauty-booking/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// CheckoutRateLimit builds the limiter settings for the payment submission route
func CheckoutRateLimit(cfg config.RateLimitConfig) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: cfg.CheckoutRequests,
		Window:            cfg.CheckoutWindow,
		KeyPrefix:         "ratelimit:checkout",
	}
}

// RateLimitMiddleware implements fixed window rate limiting using Redis.
// Requests are counted per session client, or per remote address when no
// session is present.
func RateLimitMiddleware(redisClient *redis.Client, cfg RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := "ip:" + r.RemoteAddr
			if client, ok := ClientFromContext(r.Context()); ok {
				subject = "client:" + strconv.FormatInt(client.ID, 10)
			}

			key := fmt.Sprintf("%s:%s", cfg.KeyPrefix, subject)
			ctx := r.Context()

			count, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				logger.Error("Failed to increment rate limit counter",
					zap.Error(err),
					zap.String("key", key),
				)
				// fail open
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				redisClient.Expire(ctx, key, cfg.Window)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))

			if count > int64(cfg.RequestsPerWindow) {
				ttl, err := redisClient.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = cfg.Window
				}

				logger.Warn("Rate limit exceeded",
					zap.String("subject", subject),
					zap.Int64("count", count),
					zap.Int("limit", cfg.RequestsPerWindow),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))

				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(cfg.RequestsPerWindow-int(count)))

			next.ServeHTTP(w, r)
		})
	}
}
