package events

import "time"

const (
	OrderExchangeName        = "trade.topic"
	OrderCreatedRoutingKey   = "order.created"
	OrderPaidRoutingKey      = "order.paid"
	OrderCancelledRoutingKey = "order.cancelled"
	OrderCreatedEventName    = OrderExchangeName + ":" + OrderCreatedRoutingKey
	OrderPaidEventName       = OrderExchangeName + ":" + OrderPaidRoutingKey
	OrderCancelledEventName  = OrderExchangeName + ":" + OrderCancelledRoutingKey

	PayExchangeName       = "pay.topic"
	PaySuccessRoutingKey  = "pay.success"
	PaySuccessEventName   = PayExchangeName + ":" + PaySuccessRoutingKey
	PaySuccessQueueName   = "trade.pay.success.queue"
	PaySuccessConsumerTag = "trade_pay_success_consumer"
)

type OrderItem struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type OrderCreatedEvent struct {
	OrderID  int64       `json:"orderId"`
	UserID   int64       `json:"userId"`
	TotalFee int64       `json:"totalFee"`
	Items    []OrderItem `json:"items"`
}

type OrderPaidEvent struct {
	OrderID int64     `json:"orderId"`
	UserID  int64     `json:"userId"`
	PaidAt  time.Time `json:"paidAt"`
}

type OrderCancelledEvent struct {
	OrderID int64  `json:"orderId"`
	UserID  int64  `json:"userId"`
	Reason  string `json:"reason"`
}

type PaySuccessEvent struct {
	OrderID int64     `json:"orderId"`
	PaidAt  time.Time `json:"paidAt"`
}
