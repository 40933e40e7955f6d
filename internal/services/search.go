package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"company_registry/internal/models"
)

// SearchCompanies returns companies whose name or registry code contains q,
// or that have a shareholder whose name or code contains q. Matching is
// case-insensitive.
func SearchCompanies(ctx context.Context, db *gorm.DB, q string, limit int) ([]models.Company, error) {
	companies := []models.Company{}

	q = strings.TrimSpace(q)
	if q == "" {
		return companies, nil
	}
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + strings.ToLower(q) + "%"

	holders := db.Model(&models.Shareholding{}).
		Select("shareholdings.company_id").
		Joins("JOIN persons ON persons.id = shareholdings.person_id").
		Where("LOWER(persons.first_name || ' ' || persons.last_name) LIKE ?", pattern).
		Or("LOWER(persons.legal_name) LIKE ?", pattern).
		Or("LOWER(persons.id_code) LIKE ?", pattern).
		Or("LOWER(persons.reg_code) LIKE ?", pattern)

	err := db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Or("LOWER(reg_code) LIKE ?", pattern).
		Or("id IN (?)", holders).
		Order("name").
		Limit(limit).
		Find(&companies).Error
	return companies, err
}
