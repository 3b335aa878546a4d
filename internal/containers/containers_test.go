package containers

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/dom"
	"billed/internal/models"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// recordingNavigator remembers every navigation request.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return n.err
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func newSessions(t *testing.T, sess session.Session) *session.Store {
	t.Helper()
	s := session.NewStore(session.NewMemoryStorage(), zerolog.Nop())
	require.NoError(t, s.Set(context.Background(), sess))
	return s
}

func newOptions(t *testing.T, rs store.RemoteStore, sess session.Session) (Options, *recordingNavigator) {
	t.Helper()
	nav := &recordingNavigator{}
	return Options{
		Navigator: nav,
		Store:     rs,
		Session:   newSessions(t, sess),
		Log:       zerolog.Nop(),
	}, nav
}

// renderPage renders a container view the way the router does and parses
// the resulting fragment.
func renderPage(t *testing.T, path string, p views.Page) *dom.Document {
	t.Helper()
	route, ok := routes.Lookup(path)
	require.True(t, ok)
	var buf bytes.Buffer
	require.NoError(t, views.Render(&buf, views.NewFrame(route, ""), p, true))
	doc, err := dom.Parse(&buf)
	require.NoError(t, err)
	return doc
}

func rawDates(rows []views.BillRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.RawDate)
	}
	return out
}

func TestSortAntiChrono(t *testing.T) {
	rows := []views.BillRow{
		{ID: "a", RawDate: "2002-02-02"},
		{ID: "b", RawDate: "garbage"},
		{ID: "c", RawDate: "2004-04-04"},
		{ID: "d", RawDate: "2002-02-02"},
		{ID: "e", RawDate: ""},
		{ID: "f", RawDate: "2003-03-03"},
		{ID: "g", RawDate: "2002-02-02"},
	}
	sortAntiChrono(rows)

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "f", "a", "d", "g", "b", "e"}, ids)
}

func TestSortAntiChronoMatchesComparator(t *testing.T) {
	rows := []views.BillRow{}
	for _, b := range []string{"2010-05-01", "1999-12-31", "2010-05-02", "2000-01-01", "2021-07-14", "2005-06-06"} {
		rows = append(rows, views.BillRow{RawDate: b})
	}
	sortAntiChrono(rows)

	for i := 1; i < len(rows); i++ {
		prev, err := models.ParseDate(rows[i-1].RawDate)
		require.NoError(t, err)
		cur, err := models.ParseDate(rows[i].RawDate)
		require.NoError(t, err)
		assert.False(t, prev.Before(cur), "%s listed before %s", rows[i-1].RawDate, rows[i].RawDate)
	}
}

func TestBillRowFallsBackToRawDate(t *testing.T) {
	row := billRow(models.Bill{ID: "x", Date: "21/10/2022", Status: models.StatusAccepted}, zerolog.Nop())
	assert.Equal(t, "21/10/2022", row.Date)
	assert.Equal(t, "Accepté", row.Status)

	row = billRow(models.Bill{ID: "y", Date: "2022-10-21", Status: models.StatusPending}, zerolog.Nop())
	assert.Equal(t, "21 Oct. 22", row.Date)
	assert.Equal(t, "2022-10-21", row.RawDate)
	assert.Equal(t, "En attente", row.Status)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: FieldAmount, Message: "bad"}
	assert.Equal(t, "amount: bad", err.Error())
}
