package frontend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"company_registry/internal/apiclient"
	"company_registry/internal/models"
	"company_registry/web/templates/pages"
)

// MinCapital is the smallest share capital a company can be registered with
var MinCapital = decimal.NewFromInt(2500)

const (
	blankFounderRows = 3
	blankHolderRows  = 2
	maxRegCodeLength = 7
)

// holder is a validated person row: an existing person or one to create
type holder struct {
	row      int
	personID uint
	person   apiclient.PersonInput
	amount   decimal.Decimal
}

// key identifies the person a holder row names, or "" when it names nobody yet
func (h holder) key() string {
	switch {
	case h.personID != 0:
		return fmt.Sprintf("person:%d", h.personID)
	case h.person.Type == models.PersonTypeIndividual && h.person.IDCode != "":
		return "individual:" + h.person.IDCode
	case h.person.Type == models.PersonTypeLegal && h.person.RegCode != "":
		return "legal:" + h.person.RegCode
	}
	return ""
}

type registration struct {
	company  apiclient.CompanyInput
	founders []holder
}

func blankRows(n int) []pages.PersonRow {
	rows := make([]pages.PersonRow, n)
	for i := range rows {
		rows[i].Kind = pages.PersonKindIndividual
	}
	return rows
}

func formValue(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

// parsePersonRows reads the rows rendered with the given input name prefix.
// Every row submits a kind, so the kind list sets the row count.
func parsePersonRows(form url.Values, prefix string) []pages.PersonRow {
	kinds := form[prefix+"kind"]
	rows := make([]pages.PersonRow, len(kinds))
	for i := range kinds {
		rows[i] = pages.PersonRow{
			Kind:      formValue(kinds, i),
			PersonID:  formValue(form[prefix+"person_id"], i),
			FirstName: formValue(form[prefix+"first_name"], i),
			LastName:  formValue(form[prefix+"last_name"], i),
			IDCode:    formValue(form[prefix+"id_code"], i),
			LegalName: formValue(form[prefix+"legal_name"], i),
			RegCode:   formValue(form[prefix+"reg_code"], i),
			Share:     formValue(form[prefix+"share"], i),
		}
	}
	return rows
}

func parseRegistration(form url.Values) pages.RegistrationForm {
	return pages.RegistrationForm{
		Name:         strings.TrimSpace(form.Get("name")),
		RegCode:      strings.TrimSpace(form.Get("reg_code")),
		FoundingDate: strings.TrimSpace(form.Get("founding_date")),
		Capital:      strings.TrimSpace(form.Get("capital")),
		Founders:     parsePersonRows(form, "founder_"),
	}
}

func parseCapitalIncrease(form url.Values, company models.Company) pages.CapitalIncreaseForm {
	f := pages.CapitalIncreaseForm{
		Contributions: make(map[uint]string, len(company.Shareholdings)),
		NewHolders:    parsePersonRows(form, "holder_"),
	}
	for _, s := range company.Shareholdings {
		f.Contributions[s.PersonID] = strings.TrimSpace(form.Get(pages.ContributionField(s.PersonID)))
	}
	return f
}

// parseAmount reads a positive euro amount with at most two decimals
func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", value)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("must be positive")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("must have at most two decimals")
	}
	return d, nil
}

func validateRegistration(f pages.RegistrationForm) (registration, []string) {
	var (
		reg  registration
		errs []string
	)

	switch n := utf8.RuneCountInString(f.Name); {
	case n == 0:
		errs = append(errs, "Name is required")
	case n > 255:
		errs = append(errs, "Name must be at most 255 characters")
	}
	reg.company.Name = f.Name

	switch n := utf8.RuneCountInString(f.RegCode); {
	case n == 0:
		errs = append(errs, "Registry code is required")
	case n > maxRegCodeLength:
		errs = append(errs, fmt.Sprintf("Registry code must be at most %d characters", maxRegCodeLength))
	}
	reg.company.RegCode = f.RegCode

	date, err := models.ParseDate(f.FoundingDate)
	if err != nil {
		errs = append(errs, "Founding date must be a date in the YYYY-MM-DD format")
	}
	reg.company.FoundingDate = date

	capital, capitalErr := parseAmount(f.Capital)
	switch {
	case capitalErr != nil:
		errs = append(errs, "Capital "+capitalErr.Error())
	case capital.LessThan(MinCapital):
		errs = append(errs, "Capital must be at least "+MinCapital.String()+" €")
	}
	reg.company.Capital = capital

	founders, rowErrs := validateRows(f.Founders, "Founder", map[string]bool{})
	errs = append(errs, rowErrs...)
	reg.founders = founders

	if len(f.Founders) == 0 || allBlank(f.Founders) {
		errs = append(errs, "At least one founder is required")
	} else if len(rowErrs) == 0 && capitalErr == nil {
		total := decimal.Zero
		for _, h := range founders {
			total = total.Add(h.amount)
		}
		if !total.Equal(capital) {
			errs = append(errs, fmt.Sprintf("Founders' shares add up to %s € but the capital is %s €", total.StringFixed(2), capital.StringFixed(2)))
		}
	}

	return reg, errs
}

func validateCapitalIncrease(f pages.CapitalIncreaseForm, company models.Company) ([]holder, []string) {
	var (
		holders []holder
		errs    []string
	)
	listed := map[string]bool{}

	for _, s := range company.Shareholdings {
		value := f.Contributions[s.PersonID]
		if value == "" {
			continue
		}
		listed[holder{personID: s.PersonID}.key()] = true
		amount, err := parseAmount(value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Contribution of %s %s", shareholderName(s), err))
			continue
		}
		holders = append(holders, holder{row: -1, personID: s.PersonID, amount: amount})
	}

	newHolders, rowErrs := validateRows(f.NewHolders, "New shareholder", listed)
	errs = append(errs, rowErrs...)
	holders = append(holders, newHolders...)

	if len(errs) == 0 && len(holders) == 0 {
		errs = append(errs, "Enter at least one contribution")
	}
	return holders, errs
}

func shareholderName(s models.Shareholding) string {
	if s.Person != nil {
		return s.Person.DisplayName()
	}
	return fmt.Sprintf("person %d", s.PersonID)
}

func allBlank(rows []pages.PersonRow) bool {
	for _, r := range rows {
		if !r.Blank() {
			return false
		}
	}
	return true
}

// validateRows checks every non-blank row; label prefixes the messages.
// listed holds the persons already on the form and is extended with each row.
func validateRows(rows []pages.PersonRow, label string, listed map[string]bool) ([]holder, []string) {
	var (
		holders []holder
		errs    []string
	)

	for i, r := range rows {
		if r.Blank() {
			continue
		}
		name := fmt.Sprintf("%s %d", label, i+1)
		h := holder{row: i}

		switch r.Kind {
		case pages.PersonKindExisting:
			id, err := strconv.ParseUint(r.PersonID, 10, 32)
			if err != nil || id == 0 {
				errs = append(errs, name+": choose an existing person")
			}
			h.personID = uint(id)
		case pages.PersonKindIndividual:
			if r.FirstName == "" || r.LastName == "" {
				errs = append(errs, name+": first and last name are required")
			}
			if r.IDCode == "" {
				errs = append(errs, name+": personal ID code is required")
			}
			h.person = apiclient.PersonInput{Type: models.PersonTypeIndividual, FirstName: r.FirstName, LastName: r.LastName, IDCode: r.IDCode}
		case pages.PersonKindLegal:
			if r.LegalName == "" || r.RegCode == "" {
				errs = append(errs, name+": legal name and registry code are required")
			}
			h.person = apiclient.PersonInput{Type: models.PersonTypeLegal, LegalName: r.LegalName, RegCode: r.RegCode}
		default:
			errs = append(errs, name+": unknown person kind")
		}

		if key := h.key(); key != "" {
			if listed[key] {
				errs = append(errs, name+": person is already listed")
			}
			listed[key] = true
		}

		amount, err := parseAmount(r.Share)
		if err != nil {
			errs = append(errs, name+": amount "+err.Error())
		}
		h.amount = amount

		holders = append(holders, h)
	}

	return holders, errs
}
