package manager

import (
	"fmt"

	"github.com/willibrandon/sqlbook/internal/db"
	"github.com/willibrandon/sqlbook/internal/db/models"
)

// ManagedConnection is a configured connection and its live handle, if any.
type ManagedConnection struct {
	Config models.ConnectionConfig
	// Conn is nil until the first successful connect.
	Conn db.Conn
}

// Store is the ordered collection of managed connections. The position of
// an entry is its public id; removing an entry shifts later ids down.
//
// Store is not safe for concurrent use. The manager touches it only from
// its run loop.
type Store struct {
	entries []*ManagedConnection
}

// NewStore creates a store holding configs without live handles.
func NewStore(configs []models.ConnectionConfig) *Store {
	s := &Store{entries: make([]*ManagedConnection, 0, len(configs))}
	for _, cfg := range configs {
		s.entries = append(s.entries, &ManagedConnection{Config: cfg})
	}
	return s
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Append adds an entry at the end and returns its id.
func (s *Store) Append(cfg models.ConnectionConfig, conn db.Conn) int {
	s.entries = append(s.entries, &ManagedConnection{Config: cfg, Conn: conn})
	return len(s.entries) - 1
}

// Get returns the entry at id. The returned pointer stays valid until the
// entry is replaced or removed.
func (s *Store) Get(id int) (*ManagedConnection, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	return s.entries[id], nil
}

// Replace swaps the entry at id and returns the handle it held.
func (s *Store) Replace(id int, cfg models.ConnectionConfig, conn db.Conn) (db.Conn, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	old := s.entries[id].Conn
	s.entries[id] = &ManagedConnection{Config: cfg, Conn: conn}
	return old, nil
}

// Remove deletes the entry at id and returns it.
func (s *Store) Remove(id int) (*ManagedConnection, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	removed := s.entries[id]
	s.entries = append(s.entries[:id], s.entries[id+1:]...)
	return removed, nil
}

// Configs returns the persisted form of every entry in order.
func (s *Store) Configs() []models.ConnectionConfig {
	out := make([]models.ConnectionConfig, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Config
	}
	return out
}

// Infos returns the display view of every entry in order.
func (s *Store) Infos() []models.ConnectionInfo {
	out := make([]models.ConnectionInfo, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Config.Info(i)
	}
	return out
}

func (s *Store) check(id int) error {
	if id < 0 || id >= len(s.entries) {
		return fmt.Errorf("%w: id %d, have %d connections", ErrIndexOutOfRange, id, len(s.entries))
	}
	return nil
}
