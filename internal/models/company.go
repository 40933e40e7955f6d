package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is a registered limited company
type Company struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	RegCode      string          `gorm:"type:varchar(7);not null;uniqueIndex" json:"reg_code"`
	FoundingDate Date            `gorm:"type:date;not null" json:"founding_date"`
	Capital      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"capital"`

	// Relationships
	Shareholdings []Shareholding `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"shareholders,omitempty"`
}

// TotalShares sums the nominal value of every loaded shareholding
func (c Company) TotalShares() decimal.Decimal {
	total := decimal.Zero
	for _, s := range c.Shareholdings {
		total = total.Add(s.Share)
	}
	return total
}
