package domain

import (
	"time"
)

// CREATE TABLE public.category (
//     category_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     category_name TEXT NOT NULL UNIQUE,
//     created_at    TIMESTAMPTZ DEFAULT NOW()
// );

type Category struct {
	CategoryID   uint64    `gorm:"primaryKey;column:category_id;autoIncrement" json:"category_id"`
	CategoryName string    `gorm:"column:category_name;type:text;uniqueIndex;not null" json:"category_name"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Category) TableName() string {
	return "category"
}
