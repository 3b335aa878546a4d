// Package router mounts one page container at a time according to the
// requested path and the current session.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"billed/internal/containers"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/views"
)

var (
	// ErrUnknownRoute is returned for a path missing from the route table.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrForbidden is returned when the session role may not see the route.
	ErrForbidden = errors.New("forbidden")
)

// constructors builds the container of each page.
var constructors = map[routes.Page]func(containers.Options) containers.Container{
	routes.PageLogin:     func(o containers.Options) containers.Container { return containers.NewLogin(o) },
	routes.PageBills:     func(o containers.Options) containers.Container { return containers.NewBills(o) },
	routes.PageNewBill:   func(o containers.Options) containers.Container { return containers.NewNewBill(o) },
	routes.PageDashboard: func(o containers.Options) containers.Container { return containers.NewDashboard(o) },
}

// Resolve picks the route to mount for path under sess. A visitor without
// session always gets the login page and a signed-in user asking for it
// gets their home page.
func Resolve(sess session.Session, path string) (routes.Route, error) {
	route, ok := routes.Lookup(path)
	if !ok {
		return routes.Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	if !sess.Authenticated() {
		return routes.Home(""), nil
	}
	if route.Public() {
		return routes.Home(sess.Role()), nil
	}
	if route.Role != sess.Role() {
		return routes.Route{}, fmt.Errorf("%w: %s is reserved to %s", ErrForbidden, path, route.Role)
	}
	return route, nil
}

// Router is the navigation core of one client.
type Router struct {
	session containers.SessionReader
	opts    containers.Options
	log     zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	route   routes.Route
	sess    session.Session
	mounted containers.Container
}

// New creates a router. The router itself is handed to the containers as
// their Navigator.
func New(opts containers.Options) *Router {
	r := &Router{
		session: opts.Session,
		log:     opts.Log.With().Str("component", "router").Logger(),
	}
	opts.Navigator = r
	r.opts = opts
	return r
}

// Navigate mounts the page for path. Re-navigating to the mounted page
// reloads it in place. When another navigation starts before this one has
// loaded its page, this one is dropped.
func (r *Router) Navigate(ctx context.Context, path string) error {
	sess := r.currentSession(ctx)
	route, err := Resolve(sess, path)
	if err != nil {
		r.log.Warn().Err(err).Str("session", sess.String()).Msg("navigation rejected")
		return err
	}

	r.mu.Lock()
	r.gen++
	gen := r.gen
	page := r.mounted
	if page == nil || r.route.Path != route.Path || r.sess != sess {
		page = constructors[route.Page](r.opts)
	}
	r.mu.Unlock()

	page.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.log.Debug().Str("path", route.Path).Msg("stale navigation dropped")
		return nil
	}
	r.route = route
	r.sess = sess
	r.mounted = page
	r.log.Debug().Str("path", route.Path).Str("session", sess.String()).Msg("page mounted")
	return nil
}

// Mounted returns the page container currently mounted, nil before the
// first navigation.
func (r *Router) Mounted() containers.Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mounted
}

// Path returns the path of the mounted route.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route.Path
}

// Render writes the mounted page, as the #root fragment or as the whole
// document.
func (r *Router) Render(w io.Writer, fragment bool) error {
	frame, page := r.snapshot()
	if page == nil {
		return views.Render(w, frame, views.LoadingPage(), fragment)
	}
	return views.Render(w, frame, page.View(), fragment)
}

// RenderError writes msg in place of the mounted page, keeping its frame.
func (r *Router) RenderError(w io.Writer, msg string, fragment bool) error {
	frame, _ := r.snapshot()
	return views.Render(w, frame, views.ErrorPage(msg), fragment)
}

func (r *Router) snapshot() (views.Frame, containers.Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := r.route
	if route.Path == "" {
		route = routes.Home("")
	}
	return views.NewFrame(route, r.sess.Email()), r.mounted
}

func (r *Router) currentSession(ctx context.Context) session.Session {
	if r.session == nil {
		return session.Unauthenticated()
	}
	return r.session.Get(ctx)
}

// Logout clears the session from any page and mounts the login page.
func (r *Router) Logout(ctx context.Context) error {
	return containers.NewLogin(r.opts).Logout(ctx)
}
