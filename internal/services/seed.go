package services

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/models"
)

var (
	estonianFirstNames = []string{
		"Andres", "Jaan", "Tiit", "Mart", "Peeter", "Rein", "Tõnu", "Mati", "Aivar", "Toomas",
		"Tiina", "Anne", "Kadri", "Liis", "Kati", "Mari", "Kristi", "Piret", "Liisa", "Riina",
	}
	estonianLastNames = []string{
		"Tamm", "Saar", "Sepp", "Kask", "Mägi", "Rebane", "Lepik", "Lepp", "Kukk", "Ilves",
		"Kaasik", "Oja", "Pärn", "Raudsepp", "Kuusk", "Koppel", "Laur", "Lipp", "Põder", "Vaher",
	}
	companyPrefixes = []string{
		"Eesti", "Tallinna", "Tartu", "Pärnu", "Põhja", "Lõuna", "Ida", "Lääne", "Baltika", "Meri",
	}
	companyMids = []string{
		"Ehitus", "Puit", "Metall", "Kaubandus", "Transport", "Energia", "Info", "Tootmine", "Teenindus", "Arendus",
	}
)

// SeedOptions sizes the generated data set
type SeedOptions struct {
	Individuals   int
	LegalEntities int
	Companies     int
	// Seed drives the random source; zero means time based.
	Seed int64
}

// DefaultSeedOptions mirrors the sample registry shipped with the app
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{Individuals: 20, LegalEntities: 10, Companies: 15}
}

// SeedResult reports what Seed created
type SeedResult struct {
	Skipped       bool
	Persons       int
	Companies     int
	Shareholdings int
}

// Seed fills an empty registry with sample persons, companies and
// shareholdings. It does nothing when a company already exists.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions, logger *zap.SugaredLogger) (SeedResult, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Company{}).Count(&existing).Error; err != nil {
		return SeedResult{}, fmt.Errorf("count companies: %w", err)
	}
	if existing > 0 {
		logger.Infow("database already contains data, initialization skipped", "companies", existing)
		return SeedResult{Skipped: true}, nil
	}

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	g := &generator{rnd: rand.New(rand.NewSource(opts.Seed))}

	var result SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		persons := make([]models.Person, 0, opts.Individuals+opts.LegalEntities)
		for i := 0; i < opts.Individuals; i++ {
			persons = append(persons, models.Person{
				Type:      models.PersonTypeIndividual,
				FirstName: g.pick(estonianFirstNames),
				LastName:  g.pick(estonianLastNames),
				IDCode:    g.idCode(),
			})
		}
		for i := 0; i < opts.LegalEntities; i++ {
			persons = append(persons, models.Person{
				Type:      models.PersonTypeLegal,
				LegalName: g.pick(estonianLastNames) + " Investeeringud",
				RegCode:   strconv.Itoa(g.between(10000000, 99999999)),
			})
		}
		if len(persons) > 0 {
			if err := tx.Create(&persons).Error; err != nil {
				return fmt.Errorf("create persons: %w", err)
			}
		}
		result.Persons = len(persons)

		usedCodes := make(map[string]bool)
		for i := 0; i < opts.Companies; i++ {
			company := models.Company{
				Name:         g.companyName(),
				RegCode:      g.uniqueRegCode(usedCodes),
				FoundingDate: models.NewDate(g.between(1990, 2023), time.Month(g.between(1, 12)), g.between(1, 28)),
				Capital:      decimal.NewFromInt(int64(g.between(2500, 1000000))),
			}

			holders := g.sample(persons, g.between(2, 4))
			if len(holders) > 0 {
				// round capital down so every holder gets an equal whole share
				n := int64(len(holders))
				capital := company.Capital.IntPart() / n * n
				company.Capital = decimal.NewFromInt(capital)
				share := decimal.NewFromInt(capital / n)

				for j, p := range holders {
					company.Shareholdings = append(company.Shareholdings, models.Shareholding{
						PersonID:  p.ID,
						Share:     share,
						IsFounder: j == 0,
					})
				}
			}

			if err := tx.Create(&company).Error; err != nil {
				return fmt.Errorf("create company %s: %w", company.Name, err)
			}
			result.Companies++
			result.Shareholdings += len(company.Shareholdings)
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	logger.Infow("database initialized",
		"persons", result.Persons,
		"companies", result.Companies,
		"shareholdings", result.Shareholdings,
	)
	return result, nil
}

type generator struct {
	rnd *rand.Rand
}

// between returns a random integer in [lo, hi]
func (g *generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *generator) pick(values []string) string {
	return values[g.rnd.Intn(len(values))]
}

// idCode builds an 11 digit Estonian style personal code
func (g *generator) idCode() string {
	century := []int{3, 4, 5, 6}[g.rnd.Intn(4)]

	var year int
	if century <= 4 {
		year = g.between(40, 99)
	} else {
		year = g.between(0, 23)
	}

	return fmt.Sprintf("%d%02d%02d%02d%03d1", century, year, g.between(1, 12), g.between(1, 28), g.between(0, 999))
}

func (g *generator) uniqueRegCode(used map[string]bool) string {
	for {
		code := strconv.Itoa(g.between(1000000, 9999999))
		if !used[code] {
			used[code] = true
			return code
		}
	}
}

func (g *generator) companyName() string {
	return fmt.Sprintf("%s %s OÜ", g.pick(companyPrefixes), g.pick(companyMids))
}

// sample picks n distinct persons
func (g *generator) sample(persons []models.Person, n int) []models.Person {
	if n > len(persons) {
		n = len(persons)
	}
	idx := g.rnd.Perm(len(persons))[:n]
	out := make([]models.Person, n)
	for i, j := range idx {
		out[i] = persons[j]
	}
	return out
}
