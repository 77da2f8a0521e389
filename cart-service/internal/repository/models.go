package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type CartLine struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	ItemID    int64              `json:"itemId"`
	Num       int32              `json:"num"`
	Name      string             `json:"name"`
	Spec      string             `json:"spec"`
	Price     int64              `json:"price"`
	Image     string             `json:"image"`
	CreatedAt pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt pgtype.Timestamptz `json:"updatedAt"`
}
