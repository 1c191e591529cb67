package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/civic-report/pkg/response"
)

const rateKeyPrefix = "civic:rl:"

// KeyFunc names the bucket a request counts against.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true for requests that skip the limiter.
type AllowFunc func(*gin.Context) bool

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return rateKeyPrefix + "ip:" + ClientIP(c) }
}

// KeyByIPAndPath limits each route separately, so login attempts do not eat
// into the registration budget.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return rateKeyPrefix + "route:" + routeOf(c) + ":ip:" + ClientIP(c)
	}
}

// KeyByUserID limits signed-in callers per account and anonymous ones per IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return rateKeyPrefix + "user:" + uid
		}
		return rateKeyPrefix + "anon:" + ClientIP(c)
	}
}

// fixedWindow increments the counter, arms the expiry on the first hit and
// returns {count, remaining ms}.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimit is a fixed-window limiter backed by Redis. It is a no-op when rdb
// is nil and fails open when Redis errors. Preflight requests are never counted.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		res, err := fixedWindow.Run(c.Request.Context(), rdb, []string{keyFn(c)}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		count, pttl := int(res[0]), res[1]
		reset := 0
		if pttl > 0 {
			reset = int((time.Duration(pttl)*time.Millisecond + time.Second - 1) / time.Second)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))
		if count > limit {
			c.Header("Retry-After", strconv.Itoa(reset))
			response.Abort(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		c.Next()
	}
}
