package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/models"
)

var (
	ErrCompanyNotFound     = errors.New("company not found")
	ErrPersonNotFound      = errors.New("person not found")
	ErrInvalidContribution = errors.New("contribution amount must be positive")
	ErrNoContributions     = errors.New("at least one contribution is required")
)

// Contribution is the nominal value a person adds to a company's capital
type Contribution struct {
	PersonID uint
	Amount   decimal.Decimal
}

// CapitalService applies capital increases
type CapitalService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewCapitalService(db *gorm.DB, logger *zap.SugaredLogger) *CapitalService {
	return &CapitalService{db: db, logger: logger}
}

// IncreaseCapital adds every contribution to the contributor's shareholding
// (opening a non-founder shareholding when the person holds none) and raises
// the company capital by the total, all in one transaction. Contributions
// from the same person are merged.
func (s *CapitalService) IncreaseCapital(ctx context.Context, companyID uint, contributions []Contribution) (*models.Company, error) {
	merged, total, err := mergeContributions(contributions)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return err
		}

		for _, c := range merged {
			var count int64
			if err := tx.Model(&models.Person{}).Where("id = ?", c.PersonID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: %d", ErrPersonNotFound, c.PersonID)
			}

			var holding models.Shareholding
			err := tx.Where("company_id = ? AND person_id = ?", companyID, c.PersonID).First(&holding).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				holding = models.Shareholding{
					CompanyID: companyID,
					PersonID:  c.PersonID,
					Share:     c.Amount,
				}
				if err := tx.Create(&holding).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				holding.Share = holding.Share.Add(c.Amount)
				if err := tx.Save(&holding).Error; err != nil {
					return err
				}
			}
		}

		company.Capital = company.Capital.Add(total)
		return tx.Save(&company).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("capital increased", "company_id", companyID, "amount", total.String(), "contributors", len(merged))

	var company models.Company
	if err := s.db.WithContext(ctx).Preload("Shareholdings.Person").First(&company, companyID).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func mergeContributions(contributions []Contribution) ([]Contribution, decimal.Decimal, error) {
	if len(contributions) == 0 {
		return nil, decimal.Zero, ErrNoContributions
	}

	byPerson := make(map[uint]decimal.Decimal)
	total := decimal.Zero
	for _, c := range contributions {
		if !c.Amount.IsPositive() {
			return nil, decimal.Zero, ErrInvalidContribution
		}
		byPerson[c.PersonID] = byPerson[c.PersonID].Add(c.Amount)
		total = total.Add(c.Amount)
	}

	merged := make([]Contribution, 0, len(byPerson))
	for id, amount := range byPerson {
		merged = append(merged, Contribution{PersonID: id, Amount: amount})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].PersonID < merged[j].PersonID })

	return merged, total, nil
}
