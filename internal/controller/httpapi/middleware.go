package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL через сколько забывается лимитер IP, от которого не было запросов
const limiterIdleTTL = 10 * time.Minute

// ipLimiter отдельный token bucket на каждый IP, простаивающие удаляются
type ipLimiter struct {
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int, idle time.Duration) *ipLimiter {
	return &ipLimiter{
		limiters: cache.New(idle, idle),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		// продлеваем жизнь активному IP
		l.limiters.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.rps, l.burst)
	if err := l.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		// параллельный запрос успел создать свой
		if v, ok := l.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// tracked сколько IP сейчас отслеживается
func (l *ipLimiter) tracked() int {
	return l.limiters.ItemCount()
}

// RateLimit ограничивает частоту запросов с одного IP
func RateLimit(rps float64, burst int, logger *zap.Logger) gin.HandlerFunc {
	store := newIPLimiter(rps, burst, limiterIdleTTL)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.get(ip).Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Success: false,
				Error:   &ErrorBody{Code: "RateLimited", Message: "rate limit exceeded, try again later"},
			})
			return
		}
		c.Next()
	}
}

// RequestLogger пишет каждый запрос в zap
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("ip", c.ClientIP()))
	}
}
