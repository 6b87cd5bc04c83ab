package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.cart (
//     cart_id    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     client_id  BIGINT NOT NULL REFERENCES client(client_id),
//     product_id BIGINT NOT NULL REFERENCES product(product_id),
//     quantity   INTEGER NOT NULL CHECK (quantity >= 1),
//     added_date TIMESTAMPTZ DEFAULT NOW(),
//     UNIQUE (client_id, product_id)
// );

type Cart struct {
	CartID    uint64    `gorm:"primaryKey;column:cart_id;autoIncrement" json:"cart_id"`
	ClientID  uint64    `gorm:"column:client_id;uniqueIndex:idx_cart_client_product;not null" json:"client_id"`
	ProductID uint64    `gorm:"column:product_id;uniqueIndex:idx_cart_client_product;not null" json:"product_id"`
	Quantity  int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	AddedDate time.Time `gorm:"column:added_date" json:"added_date"`
}

func (Cart) TableName() string {
	return "cart"
}

type CartItem struct {
	CartID      uint64          `json:"cart_id"`
	Quantity    int             `json:"quantity"`
	AddedDate   time.Time       `json:"added_date"`
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
}

type CartSummary struct {
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int64           `json:"total_quantity"`
}

// CartAddResult tells whether the add created a new line or bumped an
// existing one.
type CartAddResult struct {
	CartID  uint64 `json:"cart_id"`
	Created bool   `json:"created"`
}
