// Package saga describes the durable intent log kept for every checkout.
package saga

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/peng-yewang/YGMall/shared/contracts"
)

type State string

const (
	StatePricing          State = "PRICING"
	StatePersisted        State = "PERSISTED"
	StateCartCleared      State = "CART_CLEARED"
	StateStockDecremented State = "STOCK_DECREMENTED"
	StateCompensating     State = "COMPENSATING"
	StateFailed           State = "FAILED"
)

// Terminal reports whether no further work is owed for a saga in s.
func (s State) Terminal() bool {
	return s == StateStockDecremented || s == StateFailed
}

// ErrTransitionLost is returned when a saga is no longer in a state the
// requested transition may start from, usually because another worker
// moved it first.
var ErrTransitionLost = errors.New("saga state changed concurrently")

// A checkout either completes or is compensated, never both:
// STOCK_DECREMENTED can only be reached from CART_CLEARED, and compensation
// can start from anything except STOCK_DECREMENTED. A saga holding an order
// only reaches FAILED through COMPENSATING. A FAILED saga may be reopened
// because every compensation step is idempotent.
var sources = map[State][]State{
	StatePersisted:        {StatePricing},
	StateCartCleared:      {StatePersisted},
	StateStockDecremented: {StateCartCleared},
	StateCompensating:     {StatePricing, StatePersisted, StateCartCleared, StateCompensating, StateFailed},
	StateFailed:           {StatePricing, StateCompensating},
}

// Sources returns the states a saga may be in when it moves to target.
func Sources(target State) []State {
	return sources[target]
}

// CanMove reports whether a saga in from may move to to.
func CanMove(from, to State) bool {
	for _, s := range sources[to] {
		if s == from {
			return true
		}
	}
	return false
}

type Saga struct {
	ID               uuid.UUID
	UserID           int64
	State            State
	OrderID          int64
	Lines            []contracts.StockLine
	RemovedCartLines []contracts.CartLineDTO
	FailureReason    string
	UpdatedAt        time.Time
}

// HasOrder reports whether the order row was committed.
func (s Saga) HasOrder() bool {
	return s.OrderID > 0
}
