package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"billed/internal/models"
)

// Key is the storage key the session blob lives under.
const Key = "user"

// ErrItemNotFound is returned by a Storage when the key has no value.
var ErrItemNotFound = errors.New("storage item not found")

// Storage is a persisted key/value blob store scoped to one client.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// blob is the persisted layout of a session.
type blob struct {
	Type  models.Role `json:"type"`
	Email string      `json:"email"`
}

// Store reads and writes the session of one client.
type Store struct {
	storage Storage
	log     zerolog.Logger
}

// NewStore creates a session store over the given storage.
func NewStore(storage Storage, log zerolog.Logger) *Store {
	return &Store{storage: storage, log: log}
}

// Get returns the stored session. Missing or malformed data yields the
// unauthenticated session.
func (s *Store) Get(ctx context.Context) Session {
	raw, err := s.storage.GetItem(ctx, Key)
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			s.log.Warn().Err(err).Msg("read session failed")
		}
		return Unauthenticated()
	}

	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		s.log.Warn().Err(err).Msg("malformed session blob")
		return Unauthenticated()
	}

	switch b.Type {
	case models.RoleEmployee:
		return Employee(b.Email)
	case models.RoleAdmin:
		return Admin(b.Email)
	default:
		s.log.Warn().Str("type", string(b.Type)).Msg("unknown session type")
		return Unauthenticated()
	}
}

// Set persists an authenticated session. Storing the unauthenticated
// session clears it.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if !sess.Authenticated() {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(blob{Type: sess.Role(), Email: sess.Email()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.storage.SetItem(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.RemoveItem(ctx, Key); err != nil && !errors.Is(err, ErrItemNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
