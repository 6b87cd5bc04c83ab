package domain

import "time"

type PaymentConfirmation struct {
	OrderID     uint64      `json:"order_id"`
	NewStatus   OrderStatus `json:"new_status"`
	PaymentDate time.Time   `json:"payment_date"`
}

type FulfillmentUpdate struct {
	OrderID   uint64      `json:"order_id"`
	StoreID   uint64      `json:"store_id"`
	NewStatus OrderStatus `json:"new_status"`
	Changed   bool        `json:"changed"`
}
