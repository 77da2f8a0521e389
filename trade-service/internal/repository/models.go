package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"userId"`
	TotalFee    int64              `json:"totalFee"`
	PaymentType int16              `json:"paymentType"`
	Status      int16              `json:"status"`
	CreateTime  pgtype.Timestamptz `json:"createTime"`
	PayTime     pgtype.Timestamptz `json:"payTime"`
	CloseTime   pgtype.Timestamptz `json:"closeTime"`
	UpdateTime  pgtype.Timestamptz `json:"updateTime"`
}

type OrderDetail struct {
	ID         int64              `json:"id"`
	OrderID    int64              `json:"orderId"`
	ItemID     int64              `json:"itemId"`
	Num        int32              `json:"num"`
	Name       string             `json:"name"`
	Spec       string             `json:"spec"`
	Price      int64              `json:"price"`
	Image      string             `json:"image"`
	CreateTime pgtype.Timestamptz `json:"createTime"`
}

type OrderSaga struct {
	ID               pgtype.UUID        `json:"id"`
	UserID           int64              `json:"userId"`
	State            string             `json:"state"`
	OrderID          pgtype.Int8        `json:"orderId"`
	Lines            []byte             `json:"lines"`
	RemovedCartLines []byte             `json:"removedCartLines"`
	FailureReason    pgtype.Text        `json:"failureReason"`
	CreatedAt        pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt        pgtype.Timestamptz `json:"updatedAt"`
}

type OutboxEvent struct {
	ID          pgtype.UUID        `json:"id"`
	AggregateID string             `json:"aggregateId"`
	EventName   string             `json:"eventName"`
	Payload     []byte             `json:"payload"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"createdAt"`
}
