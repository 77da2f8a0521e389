// Package contracts holds the JSON bodies exchanged between services.
package contracts

import (
	"strconv"
	"strings"
	"time"
)

const (
	ItemStatusOnSale  int16 = 1
	ItemStatusOffSale int16 = 2
)

type ItemDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int32  `json:"stock"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Spec     string `json:"spec"`
	Status   int16  `json:"status"`
}

func (i ItemDTO) OnSale() bool {
	return i.Status == ItemStatusOnSale
}

type StockLine struct {
	ItemID int64 `json:"itemId"`
	Num    int32 `json:"num"`
}

type DeductStockRequest struct {
	OrderID int64       `json:"orderId"`
	Lines   []StockLine `json:"lines"`
}

type RestoreStockRequest struct {
	OrderID int64 `json:"orderId"`
}

type CartLineDTO struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	ItemID     int64     `json:"itemId"`
	Num        int32     `json:"num"`
	Name       string    `json:"name"`
	Spec       string    `json:"spec"`
	Price      int64     `json:"price"`
	Image      string    `json:"image"`
	CreateTime time.Time `json:"createTime"`
	NewPrice   int64     `json:"newPrice,omitempty"`
	Status     int16     `json:"status,omitempty"`
	Stock      int32     `json:"stock,omitempty"`
}

type AddCartItemRequest struct {
	ItemID int64 `json:"itemId"`
	Num    int32 `json:"num"`
}

type RestoreCartLinesRequest struct {
	Lines []CartLineDTO `json:"lines"`
}

type OrderDetailForm struct {
	ItemID int64 `json:"itemId"`
	Num    int32 `json:"num"`
}

type OrderFormDTO struct {
	Details     []OrderDetailForm `json:"details"`
	PaymentType int16             `json:"paymentType"`
}

type CreateOrderResponse struct {
	OrderID int64 `json:"orderId"`
}

const (
	OrderStatusUnpaid    int16 = 1
	OrderStatusPaid      int16 = 2
	OrderStatusShipped   int16 = 3
	OrderStatusFinished  int16 = 4
	OrderStatusCancelled int16 = 5
	OrderStatusClosed    int16 = 6
)

// OrderView is the order snapshot served to clients and kept under
// "order:{id}" in the cache.
type OrderView struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"userId"`
	TotalFee    int64             `json:"totalFee"`
	PaymentType int16             `json:"paymentType"`
	Status      int16             `json:"status"`
	CreateTime  time.Time         `json:"createTime"`
	PayTime     *time.Time        `json:"payTime,omitempty"`
	CloseTime   *time.Time        `json:"closeTime,omitempty"`
	Details     []OrderDetailView `json:"details"`
}

type OrderDetailView struct {
	ItemID int64  `json:"itemId"`
	Num    int32  `json:"num"`
	Name   string `json:"name"`
	Spec   string `json:"spec"`
	Price  int64  `json:"price"`
	Image  string `json:"image"`
}

// JoinIDs renders ids as the comma separated list used in ?ids= queries.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs is the inverse of JoinIDs. Empty input yields no ids.
func ParseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, &InvalidIDError{Value: part}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type InvalidIDError struct {
	Value string
}

func (e *InvalidIDError) Error() string {
	return "invalid id: " + e.Value
}
