package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.product (
//     product_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     store_id     BIGINT NOT NULL REFERENCES store(store_id),
//     category_id  BIGINT NOT NULL REFERENCES category(category_id),
//     product_name TEXT NOT NULL,
//     description  TEXT,
//     price        NUMERIC(12,2) NOT NULL CHECK (price >= 0),
//     stock        INTEGER NOT NULL CHECK (stock >= 0),
//     image_url    TEXT,
//     created_at   TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ProductID   uint64          `gorm:"primaryKey;column:product_id;autoIncrement" json:"product_id"`
	StoreID     uint64          `gorm:"column:store_id;index;not null" json:"store_id"`
	CategoryID  uint64          `gorm:"column:category_id;not null" json:"category_id"`
	ProductName string          `gorm:"column:product_name;not null" json:"product_name"`
	Description string          `gorm:"column:description" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"column:stock;not null" json:"stock"`
	ImageURL    *string         `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "product"
}

// ProductListing is a catalog row with the name of the selling store.
type ProductListing struct {
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  uint64          `json:"category_id"`
	ImageURL    *string         `json:"image_url"`
	StoreName   string          `json:"store_name"`
	StoreID     uint64          `json:"store_id"`
}
