package handlers

import (
	"sync"
	"time"

	"billed/internal/router"
)

// RouterFactory builds the navigation core of a new client.
type RouterFactory func(clientID string) *router.Router

type client struct {
	router   *router.Router
	lastSeen time.Time
}

// Clients keeps one router per browser, identified by the client cookie.
// Routers idle for longer than the TTL are dropped by Sweep; the session
// blob itself lives in the session storage and survives.
type Clients struct {
	mu        sync.Mutex
	ttl       time.Duration
	newRouter RouterFactory
	clients   map[string]*client
	now       func() time.Time
}

// NewClients creates an empty registry.
func NewClients(ttl time.Duration, factory RouterFactory) *Clients {
	return &Clients{
		ttl:       ttl,
		newRouter: factory,
		clients:   make(map[string]*client),
		now:       time.Now,
	}
}

// Get returns the router of a client, creating it on first use.
func (c *Clients) Get(id string) *router.Router {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clients[id]
	if !ok {
		cl = &client{router: c.newRouter(id)}
		c.clients[id] = cl
	}
	cl.lastSeen = c.now()
	return cl.router
}

// Sweep drops idle clients and returns how many were dropped.
func (c *Clients) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return 0
	}
	cutoff := c.now().Add(-c.ttl)
	n := 0
	for id, cl := range c.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(c.clients, id)
			n++
		}
	}
	return n
}

// Len returns the number of live clients.
func (c *Clients) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}
