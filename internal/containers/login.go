package containers

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"billed/internal/models"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/views"
)

// Login is the boundary page where a visitor picks an identity.
type Login struct {
	nav     Navigator
	session SessionWriter
	log     zerolog.Logger

	mu      sync.Mutex
	message string
}

// NewLogin creates the login container.
func NewLogin(opts Options) *Login {
	return &Login{
		nav:     opts.Navigator,
		session: opts.Session,
		log:     opts.Log.With().Str("container", "login").Logger(),
	}
}

func (l *Login) Load(context.Context) {}

// HandleSubmit stores the session of the given role and email and opens
// the home page of that role.
func (l *Login) HandleSubmit(ctx context.Context, role models.Role, email string) error {
	email = strings.TrimSpace(email)
	if !role.Valid() {
		l.setMessage("Profil inconnu.")
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		l.setMessage("Adresse email invalide.")
		return nil
	}

	var sess session.Session
	switch role {
	case models.RoleAdmin:
		sess = session.Admin(email)
	default:
		sess = session.Employee(email)
	}
	if err := l.session.Set(ctx, sess); err != nil {
		l.setMessage("Connexion impossible pour le moment.")
		l.log.Error().Err(err).Msg("store session failed")
		return fmt.Errorf("login: %w", err)
	}

	l.setMessage("")
	l.log.Info().Str("session", sess.String()).Msg("logged in")
	return l.nav.Navigate(ctx, routes.Home(role).Path)
}

// Logout forgets the session and shows the login page.
func (l *Login) Logout(ctx context.Context) error {
	if err := l.session.Clear(ctx); err != nil {
		l.log.Error().Err(err).Msg("clear session failed")
		return fmt.Errorf("logout: %w", err)
	}
	return l.nav.Navigate(ctx, routes.Login)
}

// Message returns the message shown on the login page, if any.
func (l *Login) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}

func (l *Login) setMessage(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.message = msg
}

func (l *Login) View() views.Page {
	return views.LoginUI(views.LoginData{Error: l.Message()})
}
