package containers

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// DefaultPct is the VAT rate used when none is configured.
const DefaultPct = 20

// Form field names of the new bill form.
const (
	FieldType       = "expense-type"
	FieldName       = "expense-name"
	FieldDate       = "datepicker"
	FieldAmount     = "amount"
	FieldVAT        = "vat"
	FieldPct        = "pct"
	FieldCommentary = "commentary"
	FieldFile       = "file"
)

var acceptedFileTypes = map[string]bool{
	"image/jpg":  true,
	"image/jpeg": true,
	"image/png":  true,
}

const (
	msgUploadFailed = "Le justificatif n'a pas pu être envoyé, veuillez réessayer."
	msgSubmitFailed = "La note de frais n'a pas pu être envoyée, veuillez réessayer."
	msgNoReceipt    = "Ajoutez un justificatif jpg, jpeg ou png avant d'envoyer."
)

// FileSelection is a file picked in the receipt input.
type FileSelection struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewBill is the bill creation form.
type NewBill struct {
	nav        Navigator
	store      store.RemoteStore
	session    SessionReader
	log        zerolog.Logger
	defaultPct int

	mu          sync.Mutex
	selection   uint64
	attachment  *store.Attachment
	fileInvalid bool
	submitting  bool
	form        views.NewBillData
	message     string
}

// NewNewBill creates the bill creation container.
func NewNewBill(opts Options) *NewBill {
	pct := DefaultPct
	if opts.DefaultPct != nil && *opts.DefaultPct >= 0 {
		pct = *opts.DefaultPct
	}
	return &NewBill{
		nav:        opts.Navigator,
		store:      opts.Store,
		session:    opts.Session,
		log:        opts.Log.With().Str("container", "new-bill").Logger(),
		defaultPct: pct,
	}
}

// Load has nothing to fetch: the form starts empty.
func (nb *NewBill) Load(context.Context) {}

// HandleChangeFile checks the declared type of a newly selected receipt
// and uploads it when accepted. A rejected type marks the input invalid
// and drops any pending receipt. A newer selection always wins over an
// upload still in flight.
func (nb *NewBill) HandleChangeFile(ctx context.Context, sel FileSelection) error {
	nb.mu.Lock()
	nb.selection++
	seq := nb.selection
	nb.attachment = nil
	if !acceptedFileTypes[strings.ToLower(sel.ContentType)] {
		nb.fileInvalid = true
		nb.mu.Unlock()
		nb.log.Debug().Str("type", sel.ContentType).Str("file", sel.Name).Msg("receipt type refused")
		return nil
	}
	nb.fileInvalid = false
	nb.mu.Unlock()

	sess := nb.currentSession(ctx)
	if !sess.Authenticated() {
		return nb.nav.Navigate(ctx, routes.Login)
	}
	if nb.store == nil {
		nb.setMessage(msgUploadFailed)
		return fmt.Errorf("upload receipt: %w: no backend configured", store.ErrUnavailable)
	}

	att, err := nb.store.UploadFile(ctx, store.Upload{
		FileName:    baseName(sel.Name),
		ContentType: sel.ContentType,
		Size:        sel.Size,
		Body:        sel.Body,
		Email:       sess.Email(),
	})

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if seq != nb.selection {
		nb.log.Debug().Uint64("selection", seq).Msg("superseded receipt upload discarded")
		return nil
	}
	if err != nil {
		nb.message = msgUploadFailed
		nb.log.Error().Err(err).Str("file", sel.Name).Msg("upload receipt failed")
		return fmt.Errorf("upload receipt: %w", err)
	}
	if att.FileName == "" {
		att.FileName = baseName(sel.Name)
	}
	nb.attachment = &att
	nb.message = ""
	return nil
}

// KeepDraft remembers typed field values so a re-render shows them.
func (nb *NewBill) KeepDraft(form url.Values) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.form = draftOf(form)
}

// HandleSubmit assembles a bill from the form, the uploaded receipt and
// the session email, and creates it. Input problems stay on the form
// without any backend call. On success the bill list is shown; on backend
// failure the form is kept as typed and the error returned.
func (nb *NewBill) HandleSubmit(ctx context.Context, form url.Values) error {
	sess := nb.currentSession(ctx)
	if !sess.Authenticated() {
		return nb.nav.Navigate(ctx, routes.Login)
	}

	draft := draftOf(form)
	bill, verr := parseBillForm(draft, nb.defaultPct)

	nb.mu.Lock()
	nb.form = draft
	if nb.submitting {
		nb.mu.Unlock()
		nb.log.Debug().Msg("submission already in progress")
		return nil
	}
	if verr == nil && nb.attachment == nil {
		verr = &ValidationError{Field: FieldFile, Message: msgNoReceipt}
	}
	if verr != nil {
		nb.message = verr.Message
		nb.mu.Unlock()
		nb.log.Debug().Str("field", verr.Field).Msg("new bill refused")
		return nil
	}
	if nb.store == nil {
		nb.message = msgSubmitFailed
		nb.mu.Unlock()
		return fmt.Errorf("submit bill: %w: no backend configured", store.ErrUnavailable)
	}
	bill.FileURL = nb.attachment.FileURL
	bill.FileName = nb.attachment.FileName
	nb.submitting = true
	nb.mu.Unlock()

	bill.Email = sess.Email()
	bill.Status = models.StatusPending
	created, err := nb.store.CreateBill(ctx, bill)

	nb.mu.Lock()
	nb.submitting = false
	if err != nil {
		nb.message = msgSubmitFailed
		nb.mu.Unlock()
		nb.log.Error().Err(err).Msg("create bill failed")
		return fmt.Errorf("submit bill: %w", err)
	}
	nb.form = views.NewBillData{}
	nb.attachment = nil
	nb.message = ""
	nb.mu.Unlock()

	nb.log.Info().Str("bill", created.ID).Str("email", created.Email).Msg("bill created")
	return nb.nav.Navigate(ctx, routes.Bills)
}

// FileValid reports whether the receipt input passes validation.
func (nb *NewBill) FileValid() bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return !nb.fileInvalid
}

// Attachment returns the uploaded receipt waiting for submission.
func (nb *NewBill) Attachment() (store.Attachment, bool) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.attachment == nil {
		return store.Attachment{}, false
	}
	return *nb.attachment, true
}

// Message returns the message shown on the form, if any.
func (nb *NewBill) Message() string {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.message
}

func (nb *NewBill) View() views.Page {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	data := nb.form
	data.Types = make([]string, 0, len(models.BillTypes))
	for _, t := range models.BillTypes {
		data.Types = append(data.Types, string(t))
	}
	data.DefaultPct = nb.defaultPct
	data.FileInvalid = nb.fileInvalid
	if nb.attachment != nil {
		data.FileName = nb.attachment.FileName
	}
	data.Error = nb.message
	return views.NewBillUI(data)
}

func (nb *NewBill) currentSession(ctx context.Context) session.Session {
	if nb.session == nil {
		return session.Unauthenticated()
	}
	return nb.session.Get(ctx)
}

func (nb *NewBill) setMessage(msg string) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.message = msg
}

func draftOf(form url.Values) views.NewBillData {
	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	return views.NewBillData{
		Type:       get(FieldType),
		Name:       get(FieldName),
		Date:       get(FieldDate),
		Amount:     get(FieldAmount),
		VAT:        get(FieldVAT),
		Pct:        get(FieldPct),
		Commentary: form.Get(FieldCommentary),
	}
}

// parseBillForm turns the typed values into a bill. A blank pct takes
// defaultPct.
func parseBillForm(d views.NewBillData, defaultPct int) (models.Bill, *ValidationError) {
	bill := models.Bill{
		Type:       models.BillType(d.Type),
		Name:       d.Name,
		Date:       d.Date,
		VAT:        d.VAT,
		Commentary: d.Commentary,
	}
	if !bill.Type.Valid() {
		return models.Bill{}, &ValidationError{Field: FieldType, Message: "Choisissez un type de dépense."}
	}
	if _, err := models.ParseDate(d.Date); err != nil {
		return models.Bill{}, &ValidationError{Field: FieldDate, Message: "Indiquez une date valide."}
	}
	amount, err := strconv.Atoi(d.Amount)
	if err != nil || amount <= 0 {
		return models.Bill{}, &ValidationError{Field: FieldAmount, Message: "Indiquez un montant entier positif."}
	}
	bill.Amount = amount

	if d.VAT != "" {
		if _, err := strconv.ParseFloat(d.VAT, 64); err != nil {
			return models.Bill{}, &ValidationError{Field: FieldVAT, Message: "La TVA doit être un nombre."}
		}
	}

	bill.Pct = defaultPct
	if d.Pct != "" {
		pct, err := strconv.Atoi(d.Pct)
		if err != nil || pct < 0 || pct > 100 {
			return models.Bill{}, &ValidationError{Field: FieldPct, Message: "Le taux de TVA doit être compris entre 0 et 100."}
		}
		bill.Pct = pct
	}
	return bill, nil
}

// baseName strips the directories browsers may prefix a file name with.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
