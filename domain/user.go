package domain

import (
	"time"
)

// CREATE TABLE public.client (
//     client_id    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name         TEXT NOT NULL,
//     email        TEXT NOT NULL UNIQUE,
//     phone_number TEXT,
//     password     TEXT NOT NULL,
//     role         TEXT NOT NULL DEFAULT 'user',
//     bio          TEXT,
//     address      TEXT,
//     store_id     BIGINT,
//     created_at   TIMESTAMPTZ DEFAULT NOW()
// );

const (
	RoleUser   = "user"
	RoleSeller = "seller"
)

type Client struct {
	ClientID    uint64    `gorm:"primaryKey;column:client_id;autoIncrement" json:"client_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Email       string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PhoneNumber *string   `gorm:"column:phone_number" json:"phone_number"`
	Password    string    `gorm:"column:password;not null" json:"-"`
	Role        string    `gorm:"column:role;default:user" json:"role"`
	Bio         *string   `gorm:"column:bio" json:"bio"`
	Address     *string   `gorm:"column:address" json:"address"`
	StoreID     *uint64   `gorm:"column:store_id" json:"store_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Client) TableName() string {
	return "client"
}

// ClientLogin is a client row joined with the store it owns, if any.
type ClientLogin struct {
	ClientID  uint64
	Name      string
	Email     string
	Password  string
	Role      string
	StoreID   *uint64
	StoreName *string
}

// Identity is what a verified session credential says about its bearer.
type Identity struct {
	ClientID  uint64  `json:"client_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	StoreID   *uint64 `json:"store_id"`
	StoreName *string `json:"store_name"`
}

// ProfileUpdate carries optional profile changes. A nil field is left as is;
// Bio may be set to an empty string to clear it.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	PhoneNumber *string
	Bio         *string
	Address     *string
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PhoneNumber == nil && p.Bio == nil && p.Address == nil
}

type Session struct {
	Token   string   `json:"token"`
	Profile Identity `json:"profile"`
}
