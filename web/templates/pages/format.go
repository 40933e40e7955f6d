package pages

import (
	"github.com/shopspring/decimal"

	"company_registry/internal/models"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

func founder(s models.Shareholding) string {
	if s.IsFounder {
		return "yes"
	}
	return "no"
}

func personName(s models.Shareholding) string {
	if s.Person == nil {
		return ""
	}
	return s.Person.DisplayName()
}

func personCode(s models.Shareholding) string {
	if s.Person == nil {
		return ""
	}
	return s.Person.Code()
}
