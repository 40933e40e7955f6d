package pages

import (
	"strconv"

	"company_registry/internal/models"
)

// URLFunc builds the path of a named route
type URLFunc func(name string, params ...interface{}) string

// Kinds of a person row in a form
const (
	PersonKindExisting   = "existing"
	PersonKindIndividual = "individual"
	PersonKindLegal      = "legal"
)

// PersonRow is one founder or new shareholder as typed into a form
type PersonRow struct {
	Kind      string
	PersonID  string
	FirstName string
	LastName  string
	IDCode    string
	LegalName string
	RegCode   string
	Share     string
}

// Blank reports whether the row was left empty
func (r PersonRow) Blank() bool {
	return r.Share == "" && r.PersonID == "" && r.FirstName == "" && r.LastName == "" &&
		r.IDCode == "" && r.LegalName == "" && r.RegCode == ""
}

// RegistrationForm holds the submitted registration values
type RegistrationForm struct {
	Name         string
	RegCode      string
	FoundingDate string
	Capital      string
	Founders     []PersonRow
}

// CapitalIncreaseForm holds the submitted capital increase values
type CapitalIncreaseForm struct {
	// Contributions are keyed by the person id of an existing shareholder
	Contributions map[uint]string
	NewHolders    []PersonRow
}

// ContributionField names the contribution input of an existing shareholder
func ContributionField(personID uint) string {
	return "contribution_" + strconv.FormatUint(uint64(personID), 10)
}

var personKinds = []string{PersonKindIndividual, PersonKindLegal, PersonKindExisting}

// kind defaults a new row to an individual
func (r PersonRow) kind() string {
	if r.Kind == "" {
		return PersonKindIndividual
	}
	return r.Kind
}

func personID(p models.Person) string {
	return strconv.FormatUint(uint64(p.ID), 10)
}
