package views

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/dom"
	"billed/internal/models"
	"billed/internal/routes"
)

func render(t *testing.T, f Frame, p Page, fragment bool) *dom.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, p, fragment))
	doc, err := dom.Parse(&buf)
	require.NoError(t, err)
	return doc
}

func route(t *testing.T, path string) routes.Route {
	t.Helper()
	r, ok := routes.Lookup(path)
	require.True(t, ok)
	return r
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2004-04-04", "4 Avr. 04"},
		{"2001-01-01", "1 Jan. 01"},
		{"2022-10-21", "21 Oct. 22"},
		{"1999-08-15", "15 Aoû. 99"},
		{"2020-02-29", "29 Fév. 20"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := FormatDate(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatDate("2022-13-45")
	assert.Error(t, err)
	_, err = FormatDate("")
	assert.Error(t, err)
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "En attente", FormatStatus(models.StatusPending))
	assert.Equal(t, "Accepté", FormatStatus(models.StatusAccepted))
	assert.Equal(t, "Refusé", FormatStatus(models.StatusRefused))
	assert.Equal(t, "lost", FormatStatus("lost"))
}

func TestNavIcons(t *testing.T) {
	tests := []struct {
		path       string
		wantActive string
	}{
		{routes.Bills, TestIDIconWindow},
		{routes.NewBill, TestIDIconMail},
		{routes.Login, ""},
		{routes.Dashboard, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var active []string
			for _, icon := range NavIcons(route(t, tt.path)) {
				if icon.Active {
					active = append(active, icon.TestID)
					assert.Equal(t, "icon active-icon", icon.Class())
				} else {
					assert.Equal(t, "icon", icon.Class())
				}
			}
			if tt.wantActive == "" {
				assert.Empty(t, active)
			} else {
				assert.Equal(t, []string{tt.wantActive}, active)
			}
		})
	}
}

func TestNewFrame(t *testing.T) {
	f := NewFrame(route(t, routes.Bills), "a@a")
	assert.True(t, f.Vertical)
	assert.Len(t, f.Icons, 2)
	assert.Equal(t, "a@a", f.Email)

	f = NewFrame(route(t, routes.Dashboard), "admin@a")
	assert.True(t, f.Vertical)
	assert.Empty(t, f.Icons)

	f = NewFrame(route(t, routes.Login), "")
	assert.False(t, f.Vertical)
}

func TestTestID(t *testing.T) {
	id, err := testid(TestIDIconEye)
	require.NoError(t, err)
	assert.Equal(t, "icon-eye", id)

	_, err = testid("icon-nope")
	assert.Error(t, err)
}

func TestRenderBills(t *testing.T) {
	rows := []BillRow{
		{ID: "1", Type: "Hôtel et logement", Name: "encore", Date: "4 Avr. 04", RawDate: "2004-04-04", Amount: 400, Status: "En attente", FileURL: "https://a.tld/1.jpg"},
		{ID: "2", Type: "Transports", Name: "train", Date: "not-a-date", RawDate: "not-a-date", Amount: 100, Status: "Refusé"},
	}
	doc := render(t, NewFrame(route(t, routes.Bills), "a@a"), BillsUI(BillsData{Rows: rows}), true)

	require.NotNil(t, doc.GetByID("root"))
	assert.Empty(t, doc.GetAllByTag("html")[0].Attr("lang"), "fragment has no document element of its own")
	assert.True(t, doc.GetByTestID(TestIDIconWindow).HasClass("active-icon"))
	assert.False(t, doc.GetByTestID(TestIDIconMail).HasClass("active-icon"))
	require.NotNil(t, doc.GetByTestID(TestIDBtnNewBill))

	eyes := doc.GetAllByTestID(TestIDIconEye)
	require.Len(t, eyes, 2)
	assert.Equal(t, "https://a.tld/1.jpg", eyes[0].Attr("data-bill-url"))
	assert.Empty(t, eyes[1].Attr("data-bill-url"))

	assert.Len(t, doc.GetByTestID(TestIDTbody).Children(), 2)
	assert.Nil(t, doc.GetByTestID(TestIDErrorMessage))

	modal := doc.GetByTestID(TestIDModal)
	require.NotNil(t, modal)
	assert.False(t, modal.HasClass("show"))
}

func TestRenderBillsEmpty(t *testing.T) {
	doc := render(t, NewFrame(route(t, routes.Bills), "a@a"), BillsUI(BillsData{}), false)

	tbody := doc.GetByTestID(TestIDTbody)
	require.NotNil(t, tbody)
	assert.Empty(t, tbody.Children())
	assert.Empty(t, doc.GetAllByTestID(TestIDIconEye))
	assert.Equal(t, "fr", doc.GetAllByTag("html")[0].Attr("lang"))
}

func TestRenderPreview(t *testing.T) {
	frame := NewFrame(route(t, routes.Bills), "a@a")

	doc := render(t, frame, BillsUI(BillsData{Preview: Preview{Open: true, URL: "https://a.tld/1.jpg", FileName: "1.jpg", Width: 500}}), true)
	modal := doc.GetByTestID(TestIDModal)
	assert.True(t, modal.HasClass("show"))
	imgs := doc.GetAllByTag("img")
	require.Len(t, imgs, 1)
	assert.Equal(t, "500", imgs[0].Attr("width"))
	assert.Equal(t, "https://a.tld/1.jpg", imgs[0].Attr("src"))

	doc = render(t, frame, BillsUI(BillsData{Preview: Preview{Open: true, Width: 500}}), true)
	assert.True(t, doc.GetByTestID(TestIDModal).HasClass("show"))
	assert.Empty(t, doc.GetAllByTag("img"))
	assert.Contains(t, doc.GetByTestID(TestIDModal).Text(), "Aucun justificatif")
}

func TestRenderNewBill(t *testing.T) {
	types := make([]string, 0, len(models.BillTypes))
	for _, bt := range models.BillTypes {
		types = append(types, string(bt))
	}
	data := NewBillData{Types: types, Type: "Transports", Amount: "45", DefaultPct: 20, FileInvalid: true, Error: "Montant invalide"}
	doc := render(t, NewFrame(route(t, routes.NewBill), "a@a"), NewBillUI(data), true)

	for _, id := range []string{
		TestIDFormNewBill, TestIDExpenseType, TestIDExpenseName, TestIDDatepicker,
		TestIDAmount, TestIDVAT, TestIDPct, TestIDCommentary, TestIDFile,
	} {
		assert.NotNil(t, doc.GetByTestID(id), id)
	}
	assert.False(t, doc.GetByTestID(TestIDFile).CheckValidity())
	assert.Equal(t, "45", doc.GetByTestID(TestIDAmount).Attr("value"))
	assert.Equal(t, "20", doc.GetByTestID(TestIDPct).Attr("placeholder"))
	assert.True(t, doc.GetByTestID(TestIDIconMail).HasClass("active-icon"))
	assert.Equal(t, "Montant invalide", doc.GetByTestID(TestIDErrorMessage).Text())

	options := doc.GetByTestID(TestIDExpenseType).Children()
	require.Len(t, options, len(models.BillTypes))
	assert.True(t, options[0].HasAttr("selected"))
	assert.False(t, options[1].HasAttr("selected"))

	data.FileInvalid = false
	data.FileName = "facture.jpg"
	doc = render(t, NewFrame(route(t, routes.NewBill), "a@a"), NewBillUI(data), true)
	assert.True(t, doc.GetByTestID(TestIDFile).CheckValidity())
	assert.False(t, doc.GetByTestID(TestIDFile).HasAttr("required"))
}

func TestRenderLogin(t *testing.T) {
	doc := render(t, NewFrame(route(t, routes.Login), ""), LoginUI(LoginData{}), false)
	assert.NotNil(t, doc.GetByTestID(TestIDFormEmployee))
	assert.NotNil(t, doc.GetByTestID(TestIDFormAdmin))
	assert.Nil(t, doc.GetByTestID(TestIDIconWindow))
	assert.Nil(t, doc.GetByTestID(TestIDLayoutDisconnect))
}

func TestRenderDashboard(t *testing.T) {
	data := DashboardData{
		Total: 300,
		Groups: []StatusGroup{
			{Status: models.StatusPending, Label: "En attente", Count: 1, Amount: 100, Percentage: 33.3,
				Rows: []BillRow{{ID: "b1", StatusCode: models.StatusPending, Amount: 100}}},
			{Status: models.StatusAccepted, Label: "Accepté", Count: 1, Amount: 200, Percentage: 66.7,
				Rows: []BillRow{{ID: "b2", StatusCode: models.StatusAccepted, Amount: 200, CommentAdmin: "ok"}}},
		},
	}
	doc := render(t, NewFrame(route(t, routes.Dashboard), "admin@a"), DashboardUI(data), true)

	groups := doc.GetAllByTestID(TestIDStatusGroup)
	require.Len(t, groups, 2)
	assert.Equal(t, "pending", groups[0].Attr("data-status"))
	assert.Len(t, doc.GetAllByTestID(TestIDBtnAccept), 1)
	assert.Len(t, doc.GetAllByTestID(TestIDBtnRefuse), 1)

	forms := doc.GetAllByTag("form")
	require.Len(t, forms, 1)
	assert.Equal(t, "/admin/bills/b1/review", forms[0].Attr("hx-post"))
}

func TestRenderErrorAndLoading(t *testing.T) {
	frame := NewFrame(route(t, routes.Bills), "a@a")

	doc := render(t, frame, ErrorPage("backend unavailable"), true)
	assert.Equal(t, "Erreur : backend unavailable", doc.GetByTestID(TestIDErrorMessage).Text())

	doc = render(t, frame, LoadingPage(), true)
	assert.NotNil(t, doc.GetByID("loading"))
}

func TestRenderUnknownPage(t *testing.T) {
	err := Render(&bytes.Buffer{}, Frame{}, Page{name: "nope"}, true)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown page"))
}
