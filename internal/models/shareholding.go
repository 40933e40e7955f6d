package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shareholding links a person to a company with the nominal value they hold
type Shareholding struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyID uint            `gorm:"not null;index" json:"company_id"`
	PersonID  uint            `gorm:"not null;index" json:"person_id"`
	Share     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"share"`
	IsFounder bool            `gorm:"not null;default:false" json:"is_founder"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Person  *Person  `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}
