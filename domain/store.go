package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.store (
//     store_id    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     client_id   BIGINT NOT NULL UNIQUE REFERENCES client(client_id),
//     store_name  TEXT NOT NULL,
//     description TEXT,
//     address     TEXT,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Store struct {
	StoreID     uint64    `gorm:"primaryKey;column:store_id;autoIncrement" json:"store_id"`
	ClientID    uint64    `gorm:"column:client_id;uniqueIndex;not null" json:"owner_id"`
	StoreName   string    `gorm:"column:store_name;not null" json:"store_name"`
	Description string    `gorm:"column:description" json:"description"`
	Address     string    `gorm:"column:address" json:"address"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Store) TableName() string {
	return "store"
}

type StoreProfile struct {
	StoreID     uint64 `json:"store_id"`
	StoreName   string `json:"store_name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	OwnerName   string `json:"owner_name"`
	OwnerID     uint64 `json:"owner_id"`
}

type MonthlyReport struct {
	Month             int             `json:"month"`
	TotalProductsSold int64           `json:"total_products_sold"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
}

type StoreReport struct {
	StoreID uint64          `json:"store_id"`
	Year    int             `json:"year"`
	Report  []MonthlyReport `json:"report"`
}
