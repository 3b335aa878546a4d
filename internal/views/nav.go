package views

import "billed/internal/routes"

// NavIcon is one icon of the vertical layout.
type NavIcon struct {
	TestID  string
	Section routes.Section
	Href    string
	Label   string
	Active  bool
}

// Class returns the CSS classes of the icon.
func (i NavIcon) Class() string {
	if i.Active {
		return "icon active-icon"
	}
	return "icon"
}

// NavIcons returns the layout icons for the given route, with exactly the
// icon of the route section marked active.
func NavIcons(route routes.Route) []NavIcon {
	icons := []NavIcon{
		{TestID: TestIDIconWindow, Section: routes.SectionBills, Href: routes.Bills, Label: "Notes de frais"},
		{TestID: TestIDIconMail, Section: routes.SectionNewBill, Href: routes.NewBill, Label: "Nouvelle note"},
	}
	for i := range icons {
		icons[i].Active = route.Section != routes.SectionNone && icons[i].Section == route.Section
	}
	return icons
}
