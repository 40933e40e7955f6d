package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"company_registry/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB("sqlite:" + filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createCompany(t *testing.T, db *gorm.DB, name, code string, capital int64, holders ...models.Shareholding) models.Company {
	t.Helper()
	c := models.Company{
		Name:          name,
		RegCode:       code,
		FoundingDate:  models.NewDate(2020, 1, 15),
		Capital:       decimal.NewFromInt(capital),
		Shareholdings: holders,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func createIndividual(t *testing.T, db *gorm.DB, first, last, code string) models.Person {
	t.Helper()
	p := models.Person{Type: models.PersonTypeIndividual, FirstName: first, LastName: last, IDCode: code}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestIncreaseCapital(t *testing.T) {
	db := newTestDB(t)
	svc := NewCapitalService(db, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	mari := createIndividual(t, db, "Mari", "Tamm", "49001010001")
	jaan := createIndividual(t, db, "Jaan", "Saar", "38501010002")
	company := createCompany(t, db, "Tartu Puit OÜ", "1234567", 2500,
		models.Shareholding{PersonID: mari.ID, Share: decimal.NewFromInt(2500), IsFounder: true},
	)

	updated, err := svc.IncreaseCapital(ctx, company.ID, []Contribution{
		{PersonID: mari.ID, Amount: decimal.NewFromInt(500)},
		{PersonID: jaan.ID, Amount: decimal.NewFromInt(1000)},
		{PersonID: mari.ID, Amount: decimal.NewFromInt(500)},
	})
	require.NoError(t, err)

	assert.True(t, updated.Capital.Equal(decimal.NewFromInt(4500)), "capital %s", updated.Capital)
	require.Len(t, updated.Shareholdings, 2)

	shares := map[uint]models.Shareholding{}
	for _, s := range updated.Shareholdings {
		shares[s.PersonID] = s
	}
	assert.True(t, shares[mari.ID].Share.Equal(decimal.NewFromInt(3500)))
	assert.True(t, shares[mari.ID].IsFounder)
	assert.True(t, shares[jaan.ID].Share.Equal(decimal.NewFromInt(1000)))
	assert.False(t, shares[jaan.ID].IsFounder)
	require.NotNil(t, shares[jaan.ID].Person)
	assert.Equal(t, "Jaan Saar", shares[jaan.ID].Person.DisplayName())

	assert.True(t, updated.TotalShares().Equal(updated.Capital))
}

func TestIncreaseCapitalErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewCapitalService(db, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	mari := createIndividual(t, db, "Mari", "Tamm", "49001010001")
	company := createCompany(t, db, "Tartu Puit OÜ", "1234567", 2500)

	_, err := svc.IncreaseCapital(ctx, company.ID, nil)
	assert.ErrorIs(t, err, ErrNoContributions)

	_, err = svc.IncreaseCapital(ctx, company.ID, []Contribution{{PersonID: mari.ID, Amount: decimal.Zero}})
	assert.ErrorIs(t, err, ErrInvalidContribution)

	_, err = svc.IncreaseCapital(ctx, company.ID, []Contribution{{PersonID: mari.ID, Amount: decimal.NewFromInt(-5)}})
	assert.ErrorIs(t, err, ErrInvalidContribution)

	_, err = svc.IncreaseCapital(ctx, 9999, []Contribution{{PersonID: mari.ID, Amount: decimal.NewFromInt(5)}})
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	_, err = svc.IncreaseCapital(ctx, company.ID, []Contribution{
		{PersonID: mari.ID, Amount: decimal.NewFromInt(5)},
		{PersonID: 9999, Amount: decimal.NewFromInt(5)},
	})
	assert.ErrorIs(t, err, ErrPersonNotFound)

	// failed increases roll back entirely
	var reloaded models.Company
	require.NoError(t, db.Preload("Shareholdings").First(&reloaded, company.ID).Error)
	assert.True(t, reloaded.Capital.Equal(decimal.NewFromInt(2500)))
	assert.Empty(t, reloaded.Shareholdings)
}

func TestSearchCompanies(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.True(t, db.Migrator().HasTable("persons"))
	assert.False(t, db.Migrator().HasTable("people"))

	mari := createIndividual(t, db, "Mari", "Tamm", "49001010001")
	legal := models.Person{Type: models.PersonTypeLegal, LegalName: "Kask Investeeringud", RegCode: "KASK8765"}
	require.NoError(t, db.Create(&legal).Error)

	puit := createCompany(t, db, "Tartu Puit OÜ", "1111111", 2500,
		models.Shareholding{PersonID: mari.ID, Share: decimal.NewFromInt(2500), IsFounder: true})
	energia := createCompany(t, db, "Eesti Energia OÜ", "2222222", 5000,
		models.Shareholding{PersonID: legal.ID, Share: decimal.NewFromInt(5000), IsFounder: true})
	transport := createCompany(t, db, "Meri Transport OÜ", "MT33333", 3000)

	tests := []struct {
		name     string
		query    string
		expected []uint
	}{
		{name: "by company name", query: "puit", expected: []uint{puit.ID}},
		{name: "by registry code", query: "222", expected: []uint{energia.ID}},
		{name: "by shareholder full name", query: "mari tamm", expected: []uint{puit.ID}},
		{name: "by shareholder id code", query: "49001010001", expected: []uint{puit.ID}},
		{name: "by legal shareholder", query: "kask", expected: []uint{energia.ID}},
		{name: "by uppercase registry code", query: "mt333", expected: []uint{transport.ID}},
		{name: "by uppercase shareholder code", query: "sk87", expected: []uint{energia.ID}},
		{name: "ordered by name", query: "r", expected: []uint{energia.ID, transport.ID, puit.ID}},
		{name: "no match", query: "nothing", expected: nil},
		{name: "blank", query: "  ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchCompanies(ctx, db, tt.query, 10)
			require.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i, id := range tt.expected {
				assert.Equal(t, id, got[i].ID)
			}
		})
	}
}

func TestSeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()

	opts := DefaultSeedOptions()
	opts.Seed = 42

	result, err := Seed(ctx, db, opts, logger)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 30, result.Persons)
	assert.Equal(t, 15, result.Companies)
	assert.GreaterOrEqual(t, result.Shareholdings, 30)
	assert.LessOrEqual(t, result.Shareholdings, 60)

	var companies []models.Company
	require.NoError(t, db.Preload("Shareholdings").Find(&companies).Error)
	require.Len(t, companies, 15)

	for _, c := range companies {
		assert.Len(t, c.RegCode, 7)
		assert.True(t, c.Capital.GreaterThanOrEqual(decimal.NewFromInt(2500-3)), "capital %s", c.Capital)
		assert.True(t, c.TotalShares().Equal(c.Capital), "%s: shares %s capital %s", c.Name, c.TotalShares(), c.Capital)

		founders := 0
		seen := map[uint]bool{}
		for _, s := range c.Shareholdings {
			if s.IsFounder {
				founders++
			}
			assert.False(t, seen[s.PersonID], "duplicate shareholder in %s", c.Name)
			seen[s.PersonID] = true
		}
		assert.Equal(t, 1, founders)
	}

	again, err := Seed(ctx, db, opts, logger)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}
