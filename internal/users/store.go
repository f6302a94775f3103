package users

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store keeps users in process memory, ordered by insertion.
// Ids come from a counter that only moves forward until Reset.
type Store struct {
	mu     sync.RWMutex
	users  []User
	nextID int64
}

// NewStore returns an empty store whose first id is 1.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// ListUsers returns users whose name contains search, or all users when search is empty.
func (s *Store) ListUsers(ctx context.Context, search string) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if search == "" || strings.Contains(u.Name, search) {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return User{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return s.users[i], nil
}

// CreateUser appends a user under a fresh id.
func (s *Store) CreateUser(ctx context.Context, in UserInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := User{ID: s.nextID, Name: in.Name, Email: in.Email, Phone: in.Phone}
	s.nextID++
	s.users = append(s.users, u)
	return u, nil
}

// UpdateUser overwrites the editable fields of a stored user in place.
func (s *Store) UpdateUser(ctx context.Context, id int64, in UserInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return User{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	u := &s.users[i]
	u.Name = in.Name
	u.Email = in.Email
	u.Phone = in.Phone
	return *u, nil
}

// DeleteUser removes the user with the given id, keeping the order of the rest.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

// CountUsers returns the number of stored users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Reset drops every user and rewinds the id counter.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
	s.nextID = 1
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}
