package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/retry"
	"github.com/peng-yewang/YGMall/trade-service/internal/saga"
)

type ItemGateway interface {
	QueryItemsByIDs(ctx context.Context, ids []int64) (map[int64]contracts.ItemDTO, error)
	DeductStock(ctx context.Context, req contracts.DeductStockRequest) error
	RestoreStock(ctx context.Context, req contracts.RestoreStockRequest) error
}

type CartGateway interface {
	RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]contracts.CartLineDTO, error)
	RestoreLines(ctx context.Context, userID int64, lines []contracts.CartLineDTO) error
}

type OrderWriter interface {
	Create(ctx context.Context, sagaID uuid.UUID, draft OrderDraft) (contracts.OrderView, error)
	Cancel(ctx context.Context, orderID int64, reason string) (bool, error)
}

type SagaLog interface {
	BeginSaga(ctx context.Context, userID int64, lines []contracts.StockLine) (saga.Saga, error)
	MarkCartCleared(ctx context.Context, id uuid.UUID, removed []contracts.CartLineDTO) error
	CompleteSaga(ctx context.Context, id uuid.UUID, order contracts.OrderView) error
	MarkCompensating(ctx context.Context, id uuid.UUID, reason string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// OrderCoordinator runs checkout as a saga: price the items, store the
// order, clear the cart and deduct stock. Every step after the order is
// stored is undone in reverse order when a later step fails.
type OrderCoordinator struct {
	items  ItemGateway
	carts  CartGateway
	orders OrderWriter
	sagas  SagaLog
	retry  retry.Config
	logger logs.Logger
}

func NewOrderCoordinator(items ItemGateway, carts CartGateway, orders OrderWriter, sagas SagaLog, retryConfig retry.Config, logger logs.Logger) *OrderCoordinator {
	return &OrderCoordinator{
		items:  items,
		carts:  carts,
		orders: orders,
		sagas:  sagas,
		retry:  retryConfig,
		logger: logger,
	}
}

func (c *OrderCoordinator) CreateOrder(ctx context.Context, userID int64, form contracts.OrderFormDTO) (int64, error) {
	if userID <= 0 {
		return 0, apperr.Validation("order", "user id must be positive")
	}
	lines, err := normalizeForm(form)
	if err != nil {
		return 0, err
	}

	s, err := c.sagas.BeginSaga(ctx, userID, lines)
	if err != nil {
		return 0, apperr.Internal("failed to start checkout", err)
	}
	log := c.logger.With("sagaId", s.ID.String(), "userId", userID)
	log.Info("checkout started", "state", s.State, "lines", len(lines))

	draft, err := c.price(ctx, userID, form.PaymentType, lines)
	if err != nil {
		c.fail(ctx, s, err)
		return 0, surface(err)
	}

	order, err := c.orders.Create(ctx, s.ID, draft)
	if err != nil {
		c.fail(ctx, s, err)
		return 0, surface(err)
	}
	s.State, s.OrderID = saga.StatePersisted, order.ID
	log = log.With("orderId", order.ID)
	log.Info("checkout advanced", "state", s.State, "totalFee", order.TotalFee)

	var removed []contracts.CartLineDTO
	err = retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var err error
		removed, err = c.carts.RemoveByItemIDs(ctx, userID, itemIDs(lines))
		return err
	})
	if err != nil {
		return 0, c.abort(ctx, s, fmt.Errorf("clear cart: %w", err))
	}
	s.RemovedCartLines = removed
	if err := c.sagas.MarkCartCleared(ctx, s.ID, removed); err != nil {
		return 0, c.abort(ctx, s, apperr.Internal("failed to record cart removal", err))
	}
	s.State = saga.StateCartCleared
	log.Info("checkout advanced", "state", s.State, "removedLines", len(removed))

	err = retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.items.DeductStock(ctx, contracts.DeductStockRequest{OrderID: order.ID, Lines: lines})
	})
	if err != nil {
		return 0, c.abort(ctx, s, fmt.Errorf("deduct stock: %w", err))
	}

	if err := c.sagas.CompleteSaga(ctx, s.ID, order); err != nil {
		if errors.Is(err, saga.ErrTransitionLost) {
			return 0, c.abort(ctx, s, apperr.Internal("checkout was compensated before it completed", err))
		}
		return 0, c.abort(ctx, s, apperr.Internal("failed to record checkout completion", err))
	}
	log.Info("checkout advanced", "state", saga.StateStockDecremented)

	return order.ID, nil
}

// price resolves every line against the inventory and snapshots the item
// data into the order details.
func (c *OrderCoordinator) price(ctx context.Context, userID int64, paymentType int16, lines []contracts.StockLine) (OrderDraft, error) {
	ids := itemIDs(lines)

	var items map[int64]contracts.ItemDTO
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var err error
		items, err = c.items.QueryItemsByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return OrderDraft{}, apperr.Wrap(err, "price items")
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return OrderDraft{}, apperr.NotFound("item", fmt.Sprintf("items %s not found", contracts.JoinIDs(missing))).
			WithReason(apperr.ReasonItemNotFound)
	}

	draft := OrderDraft{
		UserID:      userID,
		PaymentType: paymentType,
		Details:     make([]contracts.OrderDetailView, 0, len(lines)),
	}
	for _, line := range lines {
		item := items[line.ItemID]
		if !item.OnSale() {
			return OrderDraft{}, apperr.Conflict("item", fmt.Sprintf("item %d is off sale", item.ID)).
				WithReason(apperr.ReasonItemOffSale)
		}
		draft.TotalFee += item.Price * int64(line.Num)
		draft.Details = append(draft.Details, contracts.OrderDetailView{
			ItemID: item.ID,
			Num:    line.Num,
			Name:   item.Name,
			Spec:   item.Spec,
			Price:  item.Price,
			Image:  item.Image,
		})
	}
	return draft, nil
}

// fail closes a saga that never stored an order.
func (c *OrderCoordinator) fail(ctx context.Context, s saga.Saga, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := c.sagas.MarkFailed(ctx, s.ID, cause.Error()); err != nil {
		if errors.Is(err, saga.ErrTransitionLost) {
			c.logger.Info("checkout already closed", "sagaId", s.ID.String())
			return
		}
		c.logger.Error("failed to record checkout failure", "sagaId", s.ID.String(), "error", err)
		return
	}
	c.logger.Info("checkout failed", "sagaId", s.ID.String(), "state", saga.StateFailed, "reason", cause.Error())
}

// abort compensates s and reports cause to the caller. Compensation runs
// even when the caller has gone away.
func (c *OrderCoordinator) abort(ctx context.Context, s saga.Saga, cause error) error {
	_ = c.compensate(context.WithoutCancel(ctx), s, cause.Error())
	return surface(cause)
}

// compensate undoes the saga's effects in reverse order: stock, cart lines,
// order. A failed step leaves the saga COMPENSATING for the recovery worker.
func (c *OrderCoordinator) compensate(ctx context.Context, s saga.Saga, reason string) error {
	log := c.logger.With("sagaId", s.ID.String(), "userId", s.UserID, "orderId", s.OrderID)
	log.Warn("compensating checkout", "state", s.State, "reason", reason)

	if err := c.sagas.MarkCompensating(ctx, s.ID, reason); err != nil {
		if errors.Is(err, saga.ErrTransitionLost) {
			log.Info("checkout completed meanwhile, nothing to compensate")
			return nil
		}
		log.Error("failed to record compensation start", "error", err)
	}

	var failed []error
	if s.HasOrder() {
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.items.RestoreStock(ctx, contracts.RestoreStockRequest{OrderID: s.OrderID})
		})
		if err != nil {
			failed = append(failed, fmt.Errorf("restore stock: %w", err))
		}
	}

	if len(s.RemovedCartLines) > 0 {
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.carts.RestoreLines(ctx, s.UserID, s.RemovedCartLines)
		})
		if err != nil {
			failed = append(failed, fmt.Errorf("restore cart lines: %w", err))
		}
	}

	if s.HasOrder() {
		if _, err := c.orders.Cancel(ctx, s.OrderID, reason); err != nil {
			failed = append(failed, fmt.Errorf("cancel order: %w", err))
		}
	}

	if len(failed) > 0 {
		err := errors.Join(failed...)
		log.Error("CRITICAL: checkout compensation incomplete, saga left for recovery", "error", err)
		return err
	}

	if err := c.sagas.MarkFailed(ctx, s.ID, reason); err != nil {
		if errors.Is(err, saga.ErrTransitionLost) {
			log.Info("checkout compensated by another worker")
			return nil
		}
		log.Error("failed to record compensated checkout", "error", err)
		return err
	}
	log.Warn("checkout compensated", "state", saga.StateFailed)
	return nil
}

// Recover finishes a saga abandoned by a crashed or stuck coordinator. It is
// safe to call repeatedly for the same saga.
func (c *OrderCoordinator) Recover(ctx context.Context, s saga.Saga) error {
	if s.State.Terminal() {
		return nil
	}

	reason := s.FailureReason
	if reason == "" {
		reason = fmt.Sprintf("abandoned in state %s", s.State)
	}

	if !s.HasOrder() {
		if err := c.sagas.MarkFailed(ctx, s.ID, reason); err != nil {
			if errors.Is(err, saga.ErrTransitionLost) {
				return nil
			}
			return fmt.Errorf("failed to close saga %s: %w", s.ID, err)
		}
		c.logger.Info("recovered checkout without order", "sagaId", s.ID.String(), "state", saga.StateFailed)
		return nil
	}

	if s.State == saga.StatePersisted {
		c.logger.Warn("cart lines removed before the coordinator stopped cannot be restored", "sagaId", s.ID.String(), "orderId", s.OrderID)
	}
	return c.compensate(ctx, s, reason)
}

// surface turns exhausted collaborator failures into Internal while keeping
// the cause for the message.
func surface(err error) error {
	if apperr.IsKind(err, apperr.ErrDependency) {
		return apperr.Internal("checkout failed, a collaborator stayed unavailable", err)
	}
	return err
}

// normalizeForm validates the form and merges repeated item ids, keeping the
// order in which ids first appear.
func normalizeForm(form contracts.OrderFormDTO) ([]contracts.StockLine, error) {
	if len(form.Details) == 0 {
		return nil, apperr.Validation("order", "at least one item is required")
	}

	lines := make([]contracts.StockLine, 0, len(form.Details))
	index := make(map[int64]int, len(form.Details))
	for _, d := range form.Details {
		if d.ItemID <= 0 {
			return nil, apperr.Validation("order", "item id must be positive")
		}
		if d.Num <= 0 {
			return nil, apperr.Validation("order", fmt.Sprintf("quantity for item %d must be positive", d.ItemID))
		}
		if i, ok := index[d.ItemID]; ok {
			lines[i].Num += d.Num
			continue
		}
		index[d.ItemID] = len(lines)
		lines = append(lines, contracts.StockLine{ItemID: d.ItemID, Num: d.Num})
	}
	return lines, nil
}

func itemIDs(lines []contracts.StockLine) []int64 {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ItemID
	}
	return ids
}
