package pages

import (
	"company_registry/internal/models"
	"company_registry/web/templates/shared"
)

type HomeProps struct {
	shared.PageProps
	URL       URLFunc
	Companies []models.Company
}

type CompanyProps struct {
	shared.PageProps
	URL     URLFunc
	Company models.Company
}

type RegisterProps struct {
	shared.PageProps
	URL     URLFunc
	Form    RegistrationForm
	Persons []models.Person
	Errors  []string
}

type CapitalIncreaseProps struct {
	shared.PageProps
	URL     URLFunc
	Company models.Company
	Form    CapitalIncreaseForm
	Persons []models.Person
	Errors  []string
}

type SearchProps struct {
	shared.PageProps
	URL     URLFunc
	Query   string
	Results []models.Company
}

type ErrorPageProps struct {
	shared.PageProps
	Status       int
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}
