package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Rate  rate.Limit
	Burst int
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimiterMiddleware throttles per caller identity, falling back to the
// client IP when the request carries none.
type RateLimiterMiddleware struct {
	logger    logs.Logger
	scope     string
	config    RateLimitConfig
	limiter   Limiter
	isEnabled bool
}

func NewRateLimiterMiddleware(logger logs.Logger, scope string, config RateLimitConfig, limiter Limiter, isEnabled bool) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		logger:    logger,
		scope:     scope,
		config:    config,
		limiter:   limiter,
		isEnabled: isEnabled,
	}
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.isEnabled {
			next.ServeHTTP(w, r)
			return
		}

		identifier, err := rl.identify(r)
		if err != nil {
			rl.logger.Error("could not parse IP from remote address", "error", err)
			web.RespondWithError(w, rl.logger, r, http.StatusInternalServerError, "Internal Server Error", "Could not process request.")
			return
		}

		limit := redis_rate.Limit{
			Rate:   int(rl.config.Rate),
			Period: time.Second,
			Burst:  rl.config.Burst,
		}

		res, err := rl.limiter.Allow(r.Context(), rl.scope+":"+identifier, limit)
		if err != nil {
			// The limiter lives in the cache tier, which is advisory.
			rl.logger.Warn("could not check rate limit, letting request through", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if res.Allowed == 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			web.RespondWithError(w, rl.logger, r, http.StatusTooManyRequests, "Too Many Requests", "You have exceeded the request limit.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiterMiddleware) identify(r *http.Request) (string, error) {
	if userID, ok := web.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10), nil
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}
