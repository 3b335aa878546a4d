package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"billed/internal/containers"
	"billed/internal/models"
	"billed/internal/router"
	"billed/internal/routes"
	"billed/internal/store"
)

const (
	// ClientCookieName is the cookie identifying a browser.
	ClientCookieName = "client"
	// DefaultMaxUploadBytes bounds receipt uploads.
	DefaultMaxUploadBytes = 10 << 20
)

var errWrongPage = errors.New("page not mounted")

// Options configures the handlers.
type Options struct {
	SecureCookie   bool
	CookieTTL      time.Duration
	MaxUploadBytes int64
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	clients      *Clients
	log          zerolog.Logger
	secureCookie bool
	cookieTTL    time.Duration
	maxUpload    int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(clients *Clients, log zerolog.Logger, opts Options) *Handlers {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	ttl := opts.CookieTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Handlers{
		clients:      clients,
		log:          log,
		secureCookie: opts.SecureCookie,
		cookieTTL:    ttl,
		maxUpload:    maxUpload,
	}
}

// Register mounts the application routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	app := func(fn http.HandlerFunc) http.Handler { return h.ClientMiddleware(fn) }

	for _, route := range routes.All() {
		pattern := "GET " + route.Path
		if route.Path == routes.Login {
			pattern = "GET /{$}"
		}
		mux.Handle(pattern, app(h.Page(route.Path)))
	}

	mux.Handle("POST /login", app(h.Login))
	mux.Handle("POST /logout", app(h.Logout))

	mux.Handle("POST /employee/bills/new", app(h.ClickNewBill))
	mux.Handle("POST /employee/bills/preview", app(h.OpenPreview))
	mux.Handle("POST /employee/bills/preview/close", app(h.ClosePreview))

	mux.Handle("POST /employee/bill/new/file", app(h.ChangeFile))
	mux.Handle("POST "+routes.NewBill, app(h.SubmitBill))

	mux.Handle("POST /admin/bills/{id}/review", app(h.ReviewBill))

	mux.HandleFunc("GET /healthz", h.Health)
}

// Middleware wraps the whole mux with request id, logging and recovery.
func (h *Handlers) Middleware(next http.Handler) http.Handler {
	return RequestID(Logger(h.log)(Recovery(h.log)(next)))
}

// Page mounts the page at path and renders it.
func (h *Handlers) Page(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := RouterFromContext(r.Context())
		if err := rt.Navigate(r.Context(), path); err != nil {
			h.fail(w, r, rt, err)
			return
		}
		if !isHTMX(r) && rt.Path() != path {
			http.Redirect(w, r, rt.Path(), http.StatusFound)
			return
		}
		h.render(w, r, rt, http.StatusOK)
	}
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	login, err := mountedAs[*containers.Login](r, rt, routes.Login)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	if err := login.HandleSubmit(r.Context(), models.Role(r.PostFormValue("role")), r.PostFormValue("email")); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	if err := rt.Logout(r.Context()); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// ClickNewBill opens the bill creation form from the bill list.
func (h *Handlers) ClickNewBill(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	bills, err := mountedAs[*containers.Bills](r, rt, routes.Bills)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	if err := bills.HandleClickNewBill(r.Context()); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// formAttrs exposes the submitted value of an icon as its attributes.
type formAttrs map[string]string

func (a formAttrs) Attr(name string) string { return a[name] }

// OpenPreview opens the receipt preview of one bill row.
func (h *Handlers) OpenPreview(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	bills, err := mountedAs[*containers.Bills](r, rt, routes.Bills)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	bills.HandleClickIconEye(formAttrs{"data-bill-url": r.PostFormValue("url")})
	h.render(w, r, rt, http.StatusOK)
}

// ClosePreview hides the receipt preview.
func (h *Handlers) ClosePreview(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	bills, err := mountedAs[*containers.Bills](r, rt, routes.Bills)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	bills.ClosePreview()
	h.render(w, r, rt, http.StatusOK)
}

// ChangeFile receives the receipt picked in the new bill form.
func (h *Handlers) ChangeFile(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	nb, err := mountedAs[*containers.NewBill](r, rt, routes.NewBill)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.log.Warn().Err(err).Msg("receipt upload not readable")
		h.fail(w, r, rt, &containers.ValidationError{Field: containers.FieldFile, Message: "receipt upload not readable"})
		return
	}
	nb.KeepDraft(url.Values(r.MultipartForm.Value))

	sel := containers.FileSelection{}
	file, header, err := r.FormFile(containers.FieldFile)
	if err == nil {
		defer file.Close()
		sel = containers.FileSelection{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}
	if err := nb.HandleChangeFile(r.Context(), sel); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// SubmitBill handles the new bill form submission.
func (h *Handlers) SubmitBill(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	nb, err := mountedAs[*containers.NewBill](r, rt, routes.NewBill)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, rt, &containers.ValidationError{Field: "form", Message: err.Error()})
		return
	}
	if err := nb.HandleSubmit(r.Context(), r.PostForm); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// ReviewBill records the decision of a reviewer.
func (h *Handlers) ReviewBill(w http.ResponseWriter, r *http.Request) {
	rt := RouterFromContext(r.Context())
	dashboard, err := mountedAs[*containers.Dashboard](r, rt, routes.Dashboard)
	if err != nil {
		h.fail(w, r, rt, err)
		return
	}
	status := models.Status(r.PostFormValue("status"))
	if err := dashboard.HandleReview(r.Context(), r.PathValue("id"), status, r.PostFormValue("commentAdmin")); err != nil {
		h.fail(w, r, rt, err)
		return
	}
	h.render(w, r, rt, http.StatusOK)
}

// Health reports that the process serves requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// mountedAs returns the mounted container when it is a T, mounting the
// page at path first if needed. The session may send the router elsewhere,
// in which case errWrongPage is returned.
func mountedAs[T containers.Container](r *http.Request, rt *router.Router, path string) (T, error) {
	if page, ok := rt.Mounted().(T); ok {
		return page, nil
	}
	var zero T
	if err := rt.Navigate(r.Context(), path); err != nil {
		return zero, err
	}
	page, ok := rt.Mounted().(T)
	if !ok {
		return zero, errWrongPage
	}
	return page, nil
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render writes the mounted page. HTMX requests get the #root fragment and
// an HX-Push-Url when the route changed; plain form posts are redirected
// to the mounted route.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, rt *router.Router, status int) {
	fragment := isHTMX(r)
	if !fragment && r.Method != http.MethodGet && status < 400 {
		http.Redirect(w, r, rt.Path(), http.StatusSeeOther)
		return
	}

	var buf bytes.Buffer
	if err := rt.Render(&buf, fragment); err != nil {
		h.log.Error().Err(err).Msg("render failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if fragment && currentPath(r) != rt.Path() {
		w.Header().Set("HX-Push-Url", rt.Path())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail answers with the status matching err. Navigation errors replace the
// page with an error message; container errors re-render the page, which
// carries its own message.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, rt *router.Router, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	if errors.Is(err, router.ErrForbidden) || errors.Is(err, router.ErrUnknownRoute) {
		var buf bytes.Buffer
		if rerr := rt.RenderError(&buf, http.StatusText(status), isHTMX(r)); rerr != nil {
			http.Error(w, http.StatusText(status), status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = buf.WriteTo(w)
		return
	}
	h.render(w, r, rt, status)
}

func statusFor(err error) int {
	var verr *containers.ValidationError
	switch {
	case errors.Is(err, router.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, router.ErrUnknownRoute), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errWrongPage):
		return http.StatusConflict
	case errors.As(err, &verr), errors.Is(err, store.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func currentPath(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("HX-Current-URL"))
	if err != nil {
		return ""
	}
	return u.Path
}
