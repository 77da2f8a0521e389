package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/peng-yewang/YGMall/shared/web/middlewares"
	"github.com/peng-yewang/YGMall/trade-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeDB struct {
	repository.DBTX
}

func (fakeDB) Ping(ctx context.Context) error { return nil }

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	args := m.Called(ctx, key, limit)
	res, _ := args.Get(0).(*redis_rate.Result)
	return res, args.Error(1)
}

type stubCoordinator struct{ calls int }

func (s *stubCoordinator) CreateOrder(ctx context.Context, userID int64, form contracts.OrderFormDTO) (int64, error) {
	s.calls++
	return 7, nil
}

type stubLedger struct{}

func (stubLedger) QueryByID(ctx context.Context, orderID int64) (contracts.OrderView, error) {
	return contracts.OrderView{ID: orderID, UserID: 42}, nil
}

func (stubLedger) MarkPaid(ctx context.Context, orderID int64) (bool, error) { return true, nil }

func TestCheckoutIsRateLimitedPerUser(t *testing.T) {
	logger := logs.NewSlogLogger()
	limiter := new(MockLimiter)
	coordinator := &stubCoordinator{}
	checkoutLimiter := middlewares.NewRateLimiterMiddleware(logger, "checkout", middlewares.RateLimitConfig{Rate: 1, Burst: 1}, limiter, true)
	mux := ConfigRoutes(fakeDB{}, coordinator, stubLedger{}, checkoutLimiter, logger)

	limiter.On("Allow", mock.Anything, "checkout:user:42", mock.Anything).
		Return(&redis_rate.Result{Allowed: 1}, nil).Once()
	limiter.On("Allow", mock.Anything, "checkout:user:42", mock.Anything).
		Return(&redis_rate.Result{Allowed: 0, RetryAfter: time.Second}, nil).Once()

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte(`{"details":[{"itemId":1,"num":1}],"paymentType":1}`)))
		req.Header.Set(web.UserIDHeader, "42")
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusCreated, post().Code)
	limited := post()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, 1, coordinator.calls)
	limiter.AssertExpectations(t)
}

func TestOrderRoutesRequireIdentity(t *testing.T) {
	logger := logs.NewSlogLogger()
	checkoutLimiter := middlewares.NewRateLimiterMiddleware(logger, "checkout", middlewares.RateLimitConfig{Rate: 1, Burst: 1}, new(MockLimiter), false)
	mux := ConfigRoutes(fakeDB{}, &stubCoordinator{}, stubLedger{}, checkoutLimiter, logger)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/orders/7/paid", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestMarkPaidRefusesEndUsers(t *testing.T) {
	logger := logs.NewSlogLogger()
	checkoutLimiter := middlewares.NewRateLimiterMiddleware(logger, "checkout", middlewares.RateLimitConfig{Rate: 1, Burst: 1}, new(MockLimiter), false)
	mux := ConfigRoutes(fakeDB{}, &stubCoordinator{}, stubLedger{}, checkoutLimiter, logger)

	req := httptest.NewRequest(http.MethodPut, "/api/orders/7/paid", nil)
	req.Header.Set(web.UserIDHeader, "42")
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
