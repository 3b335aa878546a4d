package containers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/store"
	"billed/internal/views"
)

const dashboardLoadFailed = "Impossible de charger les notes de frais à valider pour le moment."

var reviewOrder = []models.Status{models.StatusPending, models.StatusAccepted, models.StatusRefused}

// Dashboard is the reviewer page: every bill grouped by review state.
type Dashboard struct {
	store store.RemoteStore
	log   zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	loaded  bool
	data    views.DashboardData
	message string
}

// NewDashboard creates the admin dashboard container.
func NewDashboard(opts Options) *Dashboard {
	return &Dashboard{
		store: opts.Store,
		log:   opts.Log.With().Str("container", "dashboard").Logger(),
	}
}

// Load refreshes the groups. Like the bill list, a failure keeps the
// previous groups and only the latest Load writes.
func (d *Dashboard) Load(ctx context.Context) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	var bills []models.Bill
	var err error
	if d.store != nil {
		bills, err = d.store.ListBills(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return
	}
	d.loaded = true
	if err != nil {
		d.log.Error().Err(err).Msg("load dashboard failed")
		d.message = dashboardLoadFailed
		return
	}
	d.data = groupByStatus(bills, d.log)
	d.message = ""
}

// groupByStatus builds one group per review state with its count, total
// amount and share of the overall amount.
func groupByStatus(bills []models.Bill, log zerolog.Logger) views.DashboardData {
	groups := make(map[models.Status]*views.StatusGroup, len(reviewOrder))
	for _, s := range reviewOrder {
		groups[s] = &views.StatusGroup{Status: s, Label: views.FormatStatus(s)}
	}

	var total int
	for _, b := range bills {
		g, ok := groups[b.Status]
		if !ok {
			log.Warn().Str("bill", b.ID).Str("status", string(b.Status)).Msg("bill with unknown status skipped")
			continue
		}
		g.Count++
		g.Amount += b.Amount
		g.Rows = append(g.Rows, billRow(b, log))
		total += b.Amount
	}

	data := views.DashboardData{Total: total}
	for _, s := range reviewOrder {
		g := groups[s]
		if total > 0 {
			g.Percentage = float64(g.Amount) / float64(total) * 100
		}
		sortAntiChrono(g.Rows)
		data.Groups = append(data.Groups, *g)
	}
	return data
}

// HandleReview accepts or refuses a pending bill.
func (d *Dashboard) HandleReview(ctx context.Context, id string, status models.Status, comment string) error {
	if status != models.StatusAccepted && status != models.StatusRefused {
		d.setMessage("Décision inconnue.")
		return nil
	}
	if d.store == nil {
		d.setMessage("Service indisponible.")
		return fmt.Errorf("review bill %s: %w: no backend configured", id, store.ErrUnavailable)
	}

	bill, err := d.store.GetBill(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.setMessage("Cette note de frais n'existe plus.")
		} else {
			d.setMessage("La décision n'a pas pu être enregistrée.")
		}
		d.log.Error().Err(err).Str("bill", id).Msg("review lookup failed")
		return fmt.Errorf("review bill %s: %w", id, err)
	}
	if bill.Status != models.StatusPending {
		d.setMessage("Cette note de frais a déjà été traitée.")
		return nil
	}

	bill.Status = status
	bill.CommentAdmin = comment
	if _, err := d.store.UpdateBill(ctx, bill); err != nil {
		d.setMessage("La décision n'a pas pu être enregistrée.")
		d.log.Error().Err(err).Str("bill", id).Msg("review update failed")
		return fmt.Errorf("review bill %s: %w", id, err)
	}

	d.log.Info().Str("bill", id).Str("status", string(status)).Msg("bill reviewed")
	d.Load(ctx)
	return nil
}

// Data returns the groups currently displayed.
func (d *Dashboard) Data() views.DashboardData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// Message returns the message shown above the groups, if any.
func (d *Dashboard) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message
}

func (d *Dashboard) setMessage(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.message = msg
}

func (d *Dashboard) View() views.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return views.LoadingPage()
	}
	data := d.data
	data.Error = d.message
	return views.DashboardUI(data)
}
