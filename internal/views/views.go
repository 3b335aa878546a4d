// Package views turns page data into HTML. Every page renders either as a
// full document or as the #root fragment swapped in by HTMX.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"billed/internal/models"
	"billed/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageBills     = "bills"
	pageNewBill   = "newbill"
	pageLogin     = "login"
	pageDashboard = "dashboard"
	pageError     = "error"
	pageLoading   = "loading"
)

var pages = parsePages(pageBills, pageNewBill, pageLogin, pageDashboard, pageError, pageLoading)

func parsePages(names ...string) map[string]*template.Template {
	base := template.Must(template.New("base.html").
		Funcs(template.FuncMap{"testid": testid}).
		ParseFS(templateFS, "templates/base.html", "templates/layout.html"))

	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(base.Clone())
		out[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return out
}

// Page is a page body ready to be rendered inside a Frame.
type Page struct {
	name string
	Data any
}

// Name returns the page template name.
func (p Page) Name() string {
	return p.name
}

// Frame is what surrounds a page: title, layout and navigation icons.
type Frame struct {
	Title    string
	Path     string
	Email    string
	Vertical bool
	Icons    []NavIcon
}

// NewFrame builds the frame of a route. Gated routes get the vertical
// layout; employee routes also get the navigation icons.
func NewFrame(route routes.Route, email string) Frame {
	f := Frame{
		Title:    route.Title,
		Path:     route.Path,
		Email:    email,
		Vertical: !route.Public(),
	}
	if route.Role == models.RoleEmployee {
		f.Icons = NavIcons(route)
	}
	return f
}

type document struct {
	Frame Frame
	Page  any
}

// Render writes the page in its frame. A fragment is only the #root
// element, a full render the whole HTML document.
func Render(w io.Writer, f Frame, p Page, fragment bool) error {
	name := p.Name()
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page %q", name)
	}
	target := "base"
	if fragment {
		target = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, target, document{Frame: f, Page: p.Data}); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// BillRow is one bill as the list shows it.
type BillRow struct {
	ID           string
	Email        string
	Type         string
	Name         string
	Date         string
	RawDate      string
	Amount       int
	VAT          string
	Pct          int
	Commentary   string
	Status       string
	StatusCode   models.Status
	FileURL      string
	FileName     string
	CommentAdmin string
}

// Preview is the receipt modal.
type Preview struct {
	Open     bool
	URL      string
	FileName string
	Width    int
}

// BillsData feeds BillsUI.
type BillsData struct {
	Rows    []BillRow
	Error   string
	Preview Preview
}

// NewBillData feeds NewBillUI. Field values are kept as typed so a
// failed submission re-renders them untouched.
type NewBillData struct {
	Types       []string
	Type        string
	Name        string
	Date        string
	Amount      string
	VAT         string
	Pct         string
	Commentary  string
	DefaultPct  int
	FileName    string
	FileInvalid bool
	Error       string
}

// LoginData feeds LoginUI.
type LoginData struct {
	Error string
}

// StatusGroup is one review state on the dashboard.
type StatusGroup struct {
	Status     models.Status
	Label      string
	Count      int
	Amount     int
	Percentage float64
	Rows       []BillRow
}

// DashboardData feeds DashboardUI.
type DashboardData struct {
	Groups []StatusGroup
	Total  int
	Error  string
}

func BillsUI(data BillsData) Page         { return Page{name: pageBills, Data: data} }
func NewBillUI(data NewBillData) Page     { return Page{name: pageNewBill, Data: data} }
func LoginUI(data LoginData) Page         { return Page{name: pageLogin, Data: data} }
func DashboardUI(data DashboardData) Page { return Page{name: pageDashboard, Data: data} }

// ErrorPage shows a message in place of the page.
func ErrorPage(msg string) Page { return Page{name: pageError, Data: msg} }

// LoadingPage is shown while a page has no data yet.
func LoadingPage() Page { return Page{name: pageLoading} }
