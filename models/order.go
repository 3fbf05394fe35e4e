package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusComplete  = "complete"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Email       string    `gorm:"type:varchar(255);not null"`
	Amount      float64   `gorm:"not null"` // price in store currency
	Currency    string    `gorm:"type:varchar(10);not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'"`
	InvoiceID   *string   `gorm:"uniqueIndex"` // UddoktaPay invoice id, recorded at completion
	Notes       string    `gorm:"type:text"`   // append-only audit log
	CompletedAt *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}
