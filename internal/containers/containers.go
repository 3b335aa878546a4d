// Package containers holds the page controllers the router mounts. Each
// container owns the state of one page and renders it through views.
package containers

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// Navigator is the navigation entry point injected into every container.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// SessionReader reads the current session.
type SessionReader interface {
	Get(ctx context.Context) session.Session
}

// SessionWriter reads and replaces the current session.
type SessionWriter interface {
	SessionReader
	Set(ctx context.Context, sess session.Session) error
	Clear(ctx context.Context) error
}

// AttrReader exposes the attributes of an interactive element.
type AttrReader interface {
	Attr(name string) string
}

// Container is a mountable page.
type Container interface {
	// Load fetches the page data. Failures are kept as a page message.
	Load(ctx context.Context)
	View() views.Page
}

// Options are the dependencies shared by all containers. Store may be nil
// when no backend is configured. A nil DefaultPct means DefaultPct.
type Options struct {
	Navigator    Navigator
	Store        store.RemoteStore
	Session      SessionWriter
	Log          zerolog.Logger
	DefaultPct   *int
	PreviewWidth int
}

// DefaultPreviewWidth is the receipt preview width in pixels.
const DefaultPreviewWidth = 500

// ValidationError is a user input problem. It is reported on the page and
// never sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// billRow enriches a bill with its display date and status. An unparseable
// date is shown as stored.
func billRow(b models.Bill, log zerolog.Logger) views.BillRow {
	date, err := views.FormatDate(b.Date)
	if err != nil {
		log.Warn().Err(err).Str("bill", b.ID).Msg("bill date not formatted")
		date = b.Date
	}
	return views.BillRow{
		ID:           b.ID,
		Email:        b.Email,
		Type:         string(b.Type),
		Name:         b.Name,
		Date:         date,
		RawDate:      b.Date,
		Amount:       b.Amount,
		VAT:          b.VAT,
		Pct:          b.Pct,
		Commentary:   b.Commentary,
		Status:       views.FormatStatus(b.Status),
		StatusCode:   b.Status,
		FileURL:      b.FileURL,
		FileName:     b.FileName,
		CommentAdmin: b.CommentAdmin,
	}
}

// sortAntiChrono orders rows from the most recent date to the oldest.
// Equal dates keep their input order; unparseable dates go last.
func sortAntiChrono(rows []views.BillRow) {
	type keyed struct {
		row   views.BillRow
		unix  int64
		valid bool
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		items[i].row = r
		if t, err := models.ParseDate(r.RawDate); err == nil {
			items[i].unix = t.Unix()
			items[i].valid = true
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.valid != b.valid {
			return a.valid
		}
		return a.unix > b.unix
	})
	for i := range items {
		rows[i] = items[i].row
	}
}
