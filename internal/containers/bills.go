package containers

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/routes"
	"billed/internal/store"
	"billed/internal/views"
)

const billsLoadFailed = "Impossible de charger vos notes de frais pour le moment."

// Bills is the bill list of the current employee.
type Bills struct {
	nav          Navigator
	store        store.RemoteStore
	session      SessionReader
	log          zerolog.Logger
	previewWidth int

	mu      sync.Mutex
	seq     uint64
	loaded  bool
	rows    []views.BillRow
	message string
	preview views.Preview
}

// NewBills creates the bill list container.
func NewBills(opts Options) *Bills {
	width := opts.PreviewWidth
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	return &Bills{
		nav:          opts.Navigator,
		store:        opts.Store,
		session:      opts.Session,
		log:          opts.Log.With().Str("container", "bills").Logger(),
		previewWidth: width,
	}
}

// GetBills fetches the bills and returns them ready for display, most
// recent first. An employee only gets their own bills. Without a
// configured store there is nothing to show and no error.
func (b *Bills) GetBills(ctx context.Context) ([]views.BillRow, error) {
	if b.store == nil {
		return nil, nil
	}
	bills, err := b.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bills: %w", err)
	}

	owner := ""
	if b.session != nil {
		if sess := b.session.Get(ctx); sess.Is(models.RoleEmployee) {
			owner = sess.Email()
		}
	}

	rows := make([]views.BillRow, 0, len(bills))
	for _, bill := range bills {
		if owner != "" && bill.Email != owner {
			continue
		}
		rows = append(rows, billRow(bill, b.log))
	}
	sortAntiChrono(rows)
	return rows, nil
}

// Load refreshes the list. A failed fetch keeps the rows of the last
// successful one and sets a message. Only the most recent Load writes.
func (b *Bills) Load(ctx context.Context) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	rows, err := b.GetBills(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		b.log.Debug().Uint64("seq", seq).Msg("stale bills fetch discarded")
		return
	}
	b.loaded = true
	if err != nil {
		b.log.Error().Err(err).Msg("load bills failed")
		b.message = billsLoadFailed
		return
	}
	b.rows = rows
	b.message = ""
}

// Rows returns the rows currently displayed.
func (b *Bills) Rows() []views.BillRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]views.BillRow(nil), b.rows...)
}

// Message returns the message shown above the list, if any.
func (b *Bills) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// HandleClickNewBill opens the bill creation form.
func (b *Bills) HandleClickNewBill(ctx context.Context) error {
	return b.nav.Navigate(ctx, routes.NewBill)
}

// HandleClickIconEye opens the receipt preview of the row the icon belongs
// to. An icon without receipt opens an empty preview.
func (b *Bills) HandleClickIconEye(el AttrReader) {
	url := ""
	if el != nil {
		url = el.Attr("data-bill-url")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	name := ""
	for _, r := range b.rows {
		if url != "" && r.FileURL == url {
			name = r.FileName
			break
		}
	}
	b.preview = views.Preview{Open: true, URL: url, FileName: name, Width: b.previewWidth}
}

// ClosePreview hides the receipt preview.
func (b *Bills) ClosePreview() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preview = views.Preview{}
}

// Preview returns the state of the receipt preview.
func (b *Bills) Preview() views.Preview {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.preview
}

func (b *Bills) View() views.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return views.LoadingPage()
	}
	return views.BillsUI(views.BillsData{
		Rows:    append([]views.BillRow(nil), b.rows...),
		Error:   b.message,
		Preview: b.preview,
	})
}
