package shared

// Breadcrumb is one step of the trail above a page. The current page has no URL.
type Breadcrumb struct {
	Title string
	URL   string
}

// NavLink is an entry of the top navigation
type NavLink struct {
	Name  string
	Title string
	URL   string
}

// PageProps are shared by every page
type PageProps struct {
	Title       string
	ActiveNav   string
	Breadcrumbs []Breadcrumb
	Nav         []NavLink
	AssetsURL   string
	Flash       string
}
