package models

import (
	"strings"
	"time"
)

// PersonType distinguishes natural persons from legal entities
type PersonType string

const (
	PersonTypeIndividual PersonType = "individual"
	PersonTypeLegal      PersonType = "legal"
)

// Person is a shareholder: either an individual or a legal entity
type Person struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type PersonType `gorm:"type:varchar(20);not null" json:"type"`

	// Individual
	FirstName string `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string `gorm:"type:varchar(255)" json:"last_name"`
	IDCode    string `gorm:"type:varchar(50);index" json:"id_code"`

	// Legal entity
	LegalName string `gorm:"type:varchar(255)" json:"legal_name"`
	RegCode   string `gorm:"type:varchar(50);index" json:"reg_code"`

	// Relationships
	Shareholdings []Shareholding `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"shareholdings,omitempty"`
}

// TableName keeps the registry's table name instead of GORM's "people"
func (Person) TableName() string {
	return "persons"
}

// DisplayName is the full name of an individual or the legal name of an entity
func (p Person) DisplayName() string {
	if p.Type == PersonTypeLegal {
		return p.LegalName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Code is the personal identification code or the registry code
func (p Person) Code() string {
	if p.Type == PersonTypeLegal {
		return p.RegCode
	}
	return p.IDCode
}
