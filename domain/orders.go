package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	StatusWaitingForPayment OrderStatus = "waiting_for_payment"
	StatusPaid              OrderStatus = "paid"
	StatusShipped           OrderStatus = "shipped"
	StatusCompleted         OrderStatus = "completed"
)

func (s OrderStatus) rank() int {
	switch s {
	case StatusWaitingForPayment:
		return 0
	case StatusPaid:
		return 1
	case StatusShipped:
		return 2
	case StatusCompleted:
		return 3
	}
	return -1
}

// IsFulfillment reports whether a store is allowed to request s.
func (s OrderStatus) IsFulfillment() bool {
	return s == StatusShipped || s == StatusCompleted
}

// Before reports whether s comes strictly earlier in the lifecycle than next.
func (s OrderStatus) Before(next OrderStatus) bool {
	return s.rank() < next.rank()
}

// CREATE TABLE public.orders (
//     order_id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_ref        TEXT NOT NULL UNIQUE,
//     client_id        BIGINT NOT NULL REFERENCES client(client_id),
//     order_date       TIMESTAMPTZ NOT NULL,
//     total_price      NUMERIC(14,2) NOT NULL,
//     status           TEXT NOT NULL,
//     shipping_address TEXT NOT NULL,
//     payment_method   TEXT NOT NULL,
//     payment_date     TIMESTAMPTZ,
//     shipped_date     TIMESTAMPTZ,
//     completion_date  TIMESTAMPTZ
// );

type Order struct {
	OrderID         uint64          `gorm:"primaryKey;column:order_id;autoIncrement" json:"order_id"`
	OrderRef        string          `gorm:"column:order_ref;uniqueIndex;not null" json:"order_ref"`
	ClientID        uint64          `gorm:"column:client_id;index;not null" json:"client_id"`
	OrderDate       time.Time       `gorm:"column:order_date;not null" json:"order_date"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null" json:"total_price"`
	Status          OrderStatus     `gorm:"column:status;not null" json:"status"`
	ShippingAddress string          `gorm:"column:shipping_address;not null" json:"shipping_address"`
	PaymentMethod   string          `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentDate     *time.Time      `gorm:"column:payment_date" json:"payment_date"`
	ShippedDate     *time.Time      `gorm:"column:shipped_date" json:"shipped_date"`
	CompletionDate  *time.Time      `gorm:"column:completion_date" json:"completion_date"`
}

func (Order) TableName() string {
	return "orders"
}

// CREATE TABLE public.order_detail (
//     order_detail_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_id        BIGINT NOT NULL REFERENCES orders(order_id),
//     product_id      BIGINT NOT NULL REFERENCES product(product_id),
//     store_id        BIGINT NOT NULL REFERENCES store(store_id),
//     quantity        INTEGER NOT NULL,
//     unit_price      NUMERIC(12,2) NOT NULL
// );

type OrderDetail struct {
	OrderDetailID uint64          `gorm:"primaryKey;column:order_detail_id;autoIncrement" json:"order_detail_id"`
	OrderID       uint64          `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID     uint64          `gorm:"column:product_id;not null" json:"product_id"`
	StoreID       uint64          `gorm:"column:store_id;index;not null" json:"store_id"`
	Quantity      int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
}

func (OrderDetail) TableName() string {
	return "order_detail"
}

type OrderItemRequest struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderInput struct {
	ClientID        uint64
	Items           []OrderItemRequest
	PaymentMethod   string
	ShippingAddress string
}

// PlacedLine is an order line as it was validated, including the product
// name for notifications.
type PlacedLine struct {
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	StoreID     uint64          `json:"store_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type PlacedOrder struct {
	Order Order        `json:"order"`
	Lines []PlacedLine `json:"items"`
}

// OrderDetailView is an order line as listed to its buyer.
type OrderDetailView struct {
	OrderDetailID uint64          `json:"order_detail_id"`
	OrderID       uint64          `json:"order_id"`
	ProductID     uint64          `json:"product_id"`
	StoreID       uint64          `json:"store_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ProductName   string          `json:"product_name"`
	ImageURL      *string         `json:"image_url"`
	Status        OrderStatus     `json:"status"`
}

type PricePreview struct {
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

const (
	OrderLogBuyer = "buyer"
	OrderLogStore = "store"
)

// CREATE TABLE public.order_logs (
//     id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_id   BIGINT NOT NULL,
//     audience   TEXT NOT NULL,
//     client_id  BIGINT,
//     store_id   BIGINT,
//     summary    JSONB NOT NULL,
//     created_at TIMESTAMPTZ DEFAULT NOW()
// );

type OrderLog struct {
	ID        uint64         `gorm:"primaryKey;column:id;autoIncrement"`
	OrderID   uint64         `gorm:"column:order_id;index;not null"`
	Audience  string         `gorm:"column:audience;not null"`
	ClientID  *uint64        `gorm:"column:client_id"`
	StoreID   *uint64        `gorm:"column:store_id"`
	Summary   datatypes.JSON `gorm:"column:summary;type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (OrderLog) TableName() string {
	return "order_logs"
}
