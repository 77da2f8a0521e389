package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	DeductionStatusDeducted = "DEDUCTED"
	DeductionStatusRestored = "RESTORED"
)

type Item struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Price     int64              `json:"price"`
	Stock     int32              `json:"stock"`
	Image     string             `json:"image"`
	Category  string             `json:"category"`
	Brand     string             `json:"brand"`
	Spec      string             `json:"spec"`
	Status    int16              `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt pgtype.Timestamptz `json:"updatedAt"`
}

type StockDeduction struct {
	OrderID   int64              `json:"orderId"`
	Status    string             `json:"status"`
	Lines     []byte             `json:"lines"`
	CreatedAt pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt pgtype.Timestamptz `json:"updatedAt"`
}
