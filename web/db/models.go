package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusVerified  OrderStatus = "VERIFIED"
	StatusExpired   OrderStatus = "EXPIRED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal statuses never move again; Verified and Cancelled are also
// immune to lazy expiry.
func (s OrderStatus) Terminal() bool {
	return s == StatusVerified || s == StatusExpired || s == StatusCancelled
}

type Order struct {
	gorm.Model
	PublicID     string          `gorm:"uniqueIndex;size:32"` // the only externally shared handle
	Amount       decimal.Decimal `gorm:"type:decimal(12,2)"`
	PayeeVPA     string          `gorm:"size:255"` // never exposed raw, see upi.MaskVPA
	MerchantName string          `gorm:"size:120"`
	Note         string          `gorm:"size:255"`
	DeepLink     string          `gorm:"size:512"` // built once at creation, served verbatim
	Status       OrderStatus     `gorm:"size:16;index;default:'PENDING'"`
	UTR          string          `gorm:"size:32"` // set by the first successful submission only
	ExpiresAt    time.Time
}

type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;size:64"`
	Password string // bcrypt hash
	UUID     string `gorm:"size:36"`
	Role     string `gorm:"size:16;default:'user'"` // "admin" or "user"
}
