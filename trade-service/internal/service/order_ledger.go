package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/cache"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/trade-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const orderCacheEntity = "order"

type OrderRepository interface {
	GetOrder(ctx context.Context, id int64) (repository.Order, error)
	ListOrderDetails(ctx context.Context, orderID int64) ([]repository.OrderDetail, error)
	CreateOrder(ctx context.Context, sagaID uuid.UUID, arg repository.CreateOrderParams, details []repository.CreateOrderDetailParams) (repository.Order, []repository.OrderDetail, error)
	MarkPaid(ctx context.Context, orderID int64) (repository.Order, bool, error)
	CancelOrder(ctx context.Context, orderID int64, reason string) (repository.Order, bool, error)
}

// OrderDraft is a priced order that has not been stored yet.
type OrderDraft struct {
	UserID      int64
	PaymentType int16
	TotalFee    int64
	Details     []contracts.OrderDetailView
}

type OrderLedger struct {
	repo   OrderRepository
	cache  *cache.Store[contracts.OrderView]
	logger logs.Logger
}

// NewOrderLedger caches order snapshots without a TTL. Every status change
// overwrites the entry.
func NewOrderLedger(repo OrderRepository, redisClient redis.Cmdable, logger logs.Logger) *OrderLedger {
	return &OrderLedger{
		repo:   repo,
		cache:  cache.NewStore(redisClient, logger, orderCacheEntity, 0, orderCacheID),
		logger: logger,
	}
}

func orderCacheID(order contracts.OrderView) string {
	return strconv.FormatInt(order.ID, 10)
}

func (l *OrderLedger) Create(ctx context.Context, sagaID uuid.UUID, draft OrderDraft) (contracts.OrderView, error) {
	details := make([]repository.CreateOrderDetailParams, len(draft.Details))
	for i, d := range draft.Details {
		details[i] = repository.CreateOrderDetailParams{
			ItemID: d.ItemID,
			Num:    d.Num,
			Name:   d.Name,
			Spec:   d.Spec,
			Price:  d.Price,
			Image:  d.Image,
		}
	}

	order, created, err := l.repo.CreateOrder(ctx, sagaID, repository.CreateOrderParams{
		UserID:      draft.UserID,
		TotalFee:    draft.TotalFee,
		PaymentType: draft.PaymentType,
	}, details)
	if err != nil {
		return contracts.OrderView{}, apperr.Internal("failed to create order", err)
	}

	view := toOrderView(order, created)
	l.cache.Refresh(ctx, view)
	l.logger.Info("order created", "orderId", order.ID, "userId", order.UserID, "totalFee", order.TotalFee)
	return view, nil
}

// MarkPaid moves an UNPAID order to PAID. A false result means the order was
// not UNPAID and callers treat it as an already handled request.
func (l *OrderLedger) MarkPaid(ctx context.Context, orderID int64) (bool, error) {
	order, updated, err := l.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return false, apperr.Internal("failed to mark order paid", err)
	}
	if !updated {
		l.logger.Info("order not unpaid, ignoring payment confirmation", "orderId", orderID)
		return false, nil
	}

	l.refresh(ctx, order)
	l.logger.Info("order marked paid", "orderId", orderID)
	return true, nil
}

// Cancel moves an UNPAID order to CANCELLED.
func (l *OrderLedger) Cancel(ctx context.Context, orderID int64, reason string) (bool, error) {
	order, updated, err := l.repo.CancelOrder(ctx, orderID, reason)
	if err != nil {
		return false, apperr.Internal("failed to cancel order", err)
	}
	if !updated {
		l.logger.Info("order not unpaid, nothing to cancel", "orderId", orderID)
		return false, nil
	}

	l.refresh(ctx, order)
	l.logger.Info("order cancelled", "orderId", orderID, "reason", reason)
	return true, nil
}

// QueryByID serves the order from cache, falling back to the store. Absent
// orders are reported as NotFound and never cached.
func (l *OrderLedger) QueryByID(ctx context.Context, orderID int64) (contracts.OrderView, error) {
	return l.cache.ReadThrough(ctx, strconv.FormatInt(orderID, 10), func(ctx context.Context) (contracts.OrderView, error) {
		return l.load(ctx, orderID)
	})
}

func (l *OrderLedger) load(ctx context.Context, orderID int64) (contracts.OrderView, error) {
	order, err := l.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.OrderView{}, apperr.NotFound("order", fmt.Sprintf("order %d not found", orderID)).
				WithReason(apperr.ReasonOrderNotFound)
		}
		return contracts.OrderView{}, apperr.Internal("failed to get order", err)
	}

	details, err := l.repo.ListOrderDetails(ctx, orderID)
	if err != nil {
		return contracts.OrderView{}, apperr.Internal("failed to list order details", err)
	}
	return toOrderView(order, details), nil
}

// refresh overwrites the cached snapshot after a status change. The details
// are immutable so only a failed read forces an eviction.
func (l *OrderLedger) refresh(ctx context.Context, order repository.Order) {
	details, err := l.repo.ListOrderDetails(ctx, order.ID)
	if err != nil {
		l.logger.Warn("could not reload order details, evicting cached order", "orderId", order.ID, "error", err)
		l.cache.Evict(ctx, strconv.FormatInt(order.ID, 10))
		return
	}
	l.cache.Refresh(ctx, toOrderView(order, details))
}

func toOrderView(order repository.Order, details []repository.OrderDetail) contracts.OrderView {
	view := contracts.OrderView{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalFee:    order.TotalFee,
		PaymentType: order.PaymentType,
		Status:      order.Status,
		CreateTime:  order.CreateTime.Time,
		PayTime:     optionalTime(order.PayTime),
		CloseTime:   optionalTime(order.CloseTime),
		Details:     make([]contracts.OrderDetailView, len(details)),
	}
	for i, d := range details {
		view.Details[i] = contracts.OrderDetailView{
			ItemID: d.ItemID,
			Num:    d.Num,
			Name:   d.Name,
			Spec:   d.Spec,
			Price:  d.Price,
			Image:  d.Image,
		}
	}
	return view
}

func optionalTime(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
