package routes

// Names of the application's routes
const (
	NameHome            = "home"
	NameCompany         = "company"
	NameRegister        = "register"
	NameCapitalIncrease = "capital-increase"
	NameSearch          = "search"
)

// Views supplies the loader of every application route
type Views struct {
	Home            Loader
	Company         Loader
	Register        Loader
	CapitalIncrease Loader
	Search          Loader
}

// Default is the application's route table. Home is loaded at startup,
// every other view on first navigation.
func Default(v Views) (*Table, error) {
	return NewTable(
		Route{Path: "/", Name: NameHome, Load: v.Home},
		Route{Path: "/company/:id", Name: NameCompany, Load: v.Company, Deferred: true},
		Route{Path: "/register", Name: NameRegister, Load: v.Register, Deferred: true},
		Route{Path: "/company/:id/capital", Name: NameCapitalIncrease, Load: v.CapitalIncrease, Deferred: true},
		Route{Path: "/search", Name: NameSearch, Load: v.Search, Deferred: true},
	)
}
