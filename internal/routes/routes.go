// Package routes is the table of pages the router can mount.
package routes

import "billed/internal/models"

// Paths of the mountable pages.
const (
	Login     = "/"
	Bills     = "/employee/bills"
	NewBill   = "/employee/bill/new"
	Dashboard = "/admin/dashboard"
)

// Page names a page constructor.
type Page string

const (
	PageLogin     Page = "login"
	PageBills     Page = "bills"
	PageNewBill   Page = "new-bill"
	PageDashboard Page = "dashboard"
)

// Section is a top-level navigation section, one per layout icon.
type Section string

const (
	SectionNone    Section = ""
	SectionBills   Section = "bills"
	SectionNewBill Section = "new-bill"
)

// Route is one entry of the table. An empty Role means the route is open to
// visitors without a session.
type Route struct {
	Path    string
	Page    Page
	Role    models.Role
	Section Section
	Title   string
}

// Public reports whether the route needs no session.
func (r Route) Public() bool {
	return r.Role == ""
}

var table = []Route{
	{Path: Login, Page: PageLogin, Title: "Billed"},
	{Path: Bills, Page: PageBills, Role: models.RoleEmployee, Section: SectionBills, Title: "Mes notes de frais"},
	{Path: NewBill, Page: PageNewBill, Role: models.RoleEmployee, Section: SectionNewBill, Title: "Envoyer une note de frais"},
	{Path: Dashboard, Page: PageDashboard, Role: models.RoleAdmin, Title: "Validations"},
}

// All returns a copy of the route table.
func All() []Route {
	return append([]Route(nil), table...)
}

// Lookup returns the route mounted at path.
func Lookup(path string) (Route, bool) {
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Home returns the landing route of a role, Login for an unknown role.
func Home(role models.Role) Route {
	switch role {
	case models.RoleEmployee:
		r, _ := Lookup(Bills)
		return r
	case models.RoleAdmin:
		r, _ := Lookup(Dashboard)
		return r
	default:
		r, _ := Lookup(Login)
		return r
	}
}
