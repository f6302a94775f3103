package users

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, search string) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, in UserInput) (User, error)
	UpdateUser(ctx context.Context, id int64, in UserInput) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Observer receives operation outcomes and the directory size after mutations.
type Observer interface {
	ObserveUserOperation(op, outcome string)
	SetUsersStored(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveUserOperation(string, string) {}
func (nopObserver) SetUsersStored(int)                  {}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	observer Observer
}

// NewService builds Service instance. A nil observer disables reporting.
func NewService(repo RepositoryPort, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{repo: repo, observer: observer}
}

// ListUsers returns users in insertion order, filtered by a case-sensitive name substring.
func (s *Service) ListUsers(ctx context.Context, search string) ([]User, error) {
	users, err := s.repo.ListUsers(ctx, search)
	s.observe("list", err)
	return users, err
}

// GetUser returns a single user or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	s.observe("get", err)
	return user, err
}

// CreateUser stores a new user under a fresh id.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (User, error) {
	user, err := s.repo.CreateUser(ctx, in)
	s.observe("create", err)
	if err == nil {
		s.syncSize(ctx)
	}
	return user, err
}

// UpdateUser overwrites name, email and phone of an existing user.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput) (User, error) {
	user, err := s.repo.UpdateUser(ctx, id, in)
	s.observe("update", err)
	// Updates never change the directory size, so the gauge is left alone.
	return user, err
}

// DeleteUser removes a user or returns ErrNotFound.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	s.observe("delete", err)
	if err == nil {
		s.syncSize(ctx)
	}
	return err
}

// Reset empties the directory.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return err
	}
	s.syncSize(ctx)
	return nil
}

// Seed creates the given users in order.
func (s *Service) Seed(ctx context.Context, inputs []UserInput) error {
	for _, in := range inputs {
		if _, err := s.CreateUser(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) observe(op string, err error) {
	switch {
	case err == nil:
		s.observer.ObserveUserOperation(op, "ok")
	case errors.Is(err, ErrNotFound):
		s.observer.ObserveUserOperation(op, "not_found")
	default:
		s.observer.ObserveUserOperation(op, "error")
	}
}

func (s *Service) syncSize(ctx context.Context) {
	if n, err := s.repo.CountUsers(ctx); err == nil {
		s.observer.SetUsersStored(n)
	}
}

// ParseSeed reads a "name|email|phone;name|email|phone" list. Missing trailing fields stay empty.
func ParseSeed(raw string) []UserInput {
	var inputs []UserInput
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.SplitN(entry, "|", 3)
		for len(fields) < 3 {
			fields = append(fields, "")
		}
		inputs = append(inputs, UserInput{
			Name:  strings.TrimSpace(fields[0]),
			Email: strings.TrimSpace(fields[1]),
			Phone: strings.TrimSpace(fields[2]),
		})
	}
	return inputs
}
