// Package session holds the roster and status taxonomy of the logged-in caregiver.
package session

import (
	"fmt"
	"sync"

	"github.com/matt-steen/care-tracker/pkg/model"
)

// Store is the single source of truth for session data. It starts empty, is populated by
// login and emptied by logout. While no session is active, reads fail with
// model.ErrNoSession rather than reporting an empty roster.
type Store struct {
	mu       sync.RWMutex
	active   bool
	clients  []model.Client
	statuses []model.Status
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// SetClients replaces the roster and marks the session active.
func (s *Store) SetClients(clients []model.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = append([]model.Client{}, clients...)
	s.active = true
}

// SetStatuses replaces the status taxonomy.
func (s *Store) SetStatuses(statuses []model.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses = append([]model.Status{}, statuses...)
}

// Clients returns a copy of the roster.
func (s *Store) Clients() ([]model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return nil, model.ErrNoSession
	}

	return append([]model.Client{}, s.clients...), nil
}

// Statuses returns a copy of the status taxonomy.
func (s *Store) Statuses() ([]model.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return nil, model.ErrNoSession
	}

	return append([]model.Status{}, s.statuses...), nil
}

// Active reports whether a session is loaded.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Client returns the client with the given id.
func (s *Store) Client(id int) (model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return model.Client{}, model.ErrNoSession
	}

	for _, c := range s.clients {
		if c.ID == id {
			return c, nil
		}
	}

	return model.Client{}, fmt.Errorf("client %d: %w", id, model.ErrNotFound)
}

// UpdateClient replaces the stored client with the same id.
func (s *Store) UpdateClient(client model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return model.ErrNoSession
	}

	for i, c := range s.clients {
		if c.ID == client.ID {
			s.clients[i] = client

			return nil
		}
	}

	return fmt.Errorf("client %d: %w", client.ID, model.ErrNotFound)
}

// StatusName returns the name of a status, or "" when it is unknown.
func (s *Store) StatusName(id int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.statuses {
		if st.ID == id {
			return st.Name
		}
	}

	return ""
}

// Clear ends the session and drops all data.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.clients = nil
	s.statuses = nil
}
