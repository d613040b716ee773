package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
)

type RateLimiter struct {
	client  *redis.Client
	configs map[string]RateLimitConfig
	logger  zerolog.Logger
	now     func() time.Time
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

var defaultConfigs = map[string]RateLimitConfig{
	"/api/testimonials/submit": {
		Requests: 3,
		Window:   time.Minute * 10,
		Message:  "Too many testimonial submissions. Please try again in 10 minutes.",
	},
	"/api/newsletter/subscribe": {
		Requests: 5,
		Window:   time.Minute * 10,
		Message:  "Too many subscription attempts. Please try again in 10 minutes.",
	},
	"/api/checkout/promo": {
		Requests: 10,
		Window:   time.Minute * 5,
		Message:  "Too many promo code attempts. Please wait 5 minutes.",
	},
	"/api/checkout/activate": {
		Requests: 5,
		Window:   time.Minute * 5,
		Message:  "Too many activation attempts. Please wait 5 minutes.",
	},
	"default": {
		Requests: 120,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	configs := make(map[string]RateLimitConfig, len(defaultConfigs))
	for k, v := range defaultConfigs {
		configs[k] = v
	}
	return &RateLimiter{
		client:  client,
		configs: configs,
		logger:  logger.With().Str("component", "rate_limiter").Logger(),
		now:     time.Now,
	}
}

// SetLimit overrides the limit of one path, or of "default".
func (rl *RateLimiter) SetLimit(path string, cfg RateLimitConfig) {
	rl.configs[path] = cfg
}

func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			config := rl.getConfigForEndpoint(r.URL.Path)
			key := rl.getRateLimitKey(r)

			allowed, remaining, resetTime, err := rl.checkRateLimit(r.Context(), key, config)
			if err != nil {
				// fail open
				rl.logger.Error().Err(err).Str("key", key).Msg("Rate limit check error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				rl.logger.Warn().Str("key", key).Str("endpoint", r.URL.Path).Msg("Rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(int64(resetTime.Sub(rl.now()).Seconds()), 10))
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(models.APIResponse{
					Status:  "error",
					Message: config.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getConfigForEndpoint(path string) RateLimitConfig {
	if config, exists := rl.configs[path]; exists {
		return config
	}
	return rl.configs["default"]
}

func (rl *RateLimiter) getRateLimitKey(r *http.Request) string {
	return fmt.Sprintf("rate_limit:%s:%s", ClientIP(r), r.URL.Path)
}

// ClientIP extracts the caller address, honouring common proxy headers.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

const rateLimitScript = `
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local member = ARGV[3]
	local score = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

	local current_count = redis.call('ZCARD', key)

	if current_count < limit then
		redis.call('ZADD', key, score, member)
		redis.call('EXPIRE', key, 3600)
		return {1, limit - current_count - 1}
	else
		return {0, 0}
	end
`

// checkRateLimit counts requests in fixed windows with an atomic Lua script.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := rl.now()
	windowStart := now.Truncate(config.Window)
	windowEnd := windowStart.Add(config.Window)

	result, err := rl.client.Eval(ctx, rateLimitScript, []string{key},
		windowStart.Unix(), config.Requests, strconv.FormatInt(now.UnixNano(), 10), now.Unix()).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	allowedInt, ok1 := resultSlice[0].(int64)
	remainingInt, ok2 := resultSlice[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowedInt == 1, int(remainingInt), windowEnd, nil
}

// IPWhitelistMiddleware rejects callers outside allowedIPs. An empty list allows everyone.
func IPWhitelistMiddleware(allowedIPs []string, logger zerolog.Logger) func(http.Handler) http.Handler {
	ipMap := make(map[string]bool)
	for _, ip := range allowedIPs {
		ipMap[ip] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(ipMap) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			clientIP := ClientIP(r)
			if !ipMap[clientIP] {
				logger.Warn().Str("ip", clientIP).Str("endpoint", r.URL.Path).Msg("Access denied")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(models.APIResponse{
					Status:  "error",
					Message: "Access denied from your IP address",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}
