package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	args := m.Called(ctx, key, limit)
	res, _ := args.Get(0).(*redis_rate.Result)
	return res, args.Error(1)
}

func TestRateLimiterMiddleware(t *testing.T) {
	logger := logs.NewSlogLogger()
	config := RateLimitConfig{Rate: 5, Burst: 10}
	expectedLimit := redis_rate.Limit{Rate: 5, Period: time.Second, Burst: 10}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		return req.WithContext(web.WithUserID(req.Context(), 42))
	}

	t.Run("allowed", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "checkout:user:42", expectedLimit).Return(&redis_rate.Result{Allowed: 1}, nil).Once()

		rr := httptest.NewRecorder()
		NewRateLimiterMiddleware(logger, "checkout", config, limiter, true).Middleware(next).ServeHTTP(rr, newRequest())

		assert.Equal(t, http.StatusCreated, rr.Code)
		limiter.AssertExpectations(t)
	})

	t.Run("throttled", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "checkout:user:42", expectedLimit).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 2 * time.Second}, nil).Once()

		rr := httptest.NewRecorder()
		NewRateLimiterMiddleware(logger, "checkout", config, limiter, true).Middleware(next).ServeHTTP(rr, newRequest())

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "3", rr.Header().Get("Retry-After"))
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "checkout:user:42", expectedLimit).Return(nil, errors.New("redis down")).Once()

		rr := httptest.NewRecorder()
		NewRateLimiterMiddleware(logger, "checkout", config, limiter, true).Middleware(next).ServeHTTP(rr, newRequest())

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("anonymous caller keyed by ip", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "checkout:ip:192.0.2.1", expectedLimit).Return(&redis_rate.Result{Allowed: 1}, nil).Once()

		rr := httptest.NewRecorder()
		NewRateLimiterMiddleware(logger, "checkout", config, limiter, true).Middleware(next).
			ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/orders", nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
		limiter.AssertExpectations(t)
	})

	t.Run("disabled", func(t *testing.T) {
		limiter := new(MockLimiter)

		rr := httptest.NewRecorder()
		NewRateLimiterMiddleware(logger, "checkout", config, limiter, false).Middleware(next).ServeHTTP(rr, newRequest())

		assert.Equal(t, http.StatusCreated, rr.Code)
		limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything)
	})
}
