// Package session keeps the identity of the current user in a persisted
// key/value blob and exposes it as a typed value.
package session

import (
	"billed/internal/models"
)

// Session is the identity of the current user. The zero value is the
// unauthenticated session.
type Session struct {
	role  models.Role
	email string
}

// Unauthenticated returns the session of a visitor with no stored identity.
func Unauthenticated() Session {
	return Session{}
}

// Employee returns an employee session.
func Employee(email string) Session {
	return Session{role: models.RoleEmployee, email: email}
}

// Admin returns an administrator session.
func Admin(email string) Session {
	return Session{role: models.RoleAdmin, email: email}
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.role != ""
}

// Role returns the session role, empty when unauthenticated.
func (s Session) Role() models.Role {
	return s.role
}

// Email returns the session email, empty when unauthenticated.
func (s Session) Email() string {
	return s.email
}

// Is reports whether the session is authenticated with the given role.
func (s Session) Is(role models.Role) bool {
	return s.Authenticated() && s.role == role
}

func (s Session) String() string {
	if !s.Authenticated() {
		return "unauthenticated"
	}
	return string(s.role) + "(" + s.email + ")"
}
