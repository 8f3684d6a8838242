// Package tokens keeps the client's bearer credentials.
//
// The access token lives in a session-scoped slot that dies with the process;
// the refresh token lives in the durable metadata store and survives
// restarts. Neither slot is encrypted and no expiry metadata is stored next
// to the value.
package tokens

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/incidentauth/internal/client/repositories/metadata"
)

// Storage is the two-slot token store consumed by the auth service.
// Getters return "" for an empty slot.
type Storage interface {
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	RemoveToken(ctx context.Context) error

	SetRefreshToken(ctx context.Context, token string) error
	RefreshToken(ctx context.Context) (string, error)
	RemoveRefreshToken(ctx context.Context) error
}

// Store implements Storage with an in-memory access slot and a
// metadata-backed refresh slot.
type Store struct {
	mu      sync.RWMutex
	access  string
	durable metadata.Repository
}

func NewStore(durable metadata.Repository) *Store {
	return &Store{durable: durable}
}

// SetToken overwrites the access slot.
func (s *Store) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return nil
}

func (s *Store) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, nil
}

func (s *Store) RemoveToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	return nil
}

func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	if err := s.durable.Set(ctx, metadata.KeyRefreshToken, []byte(token)); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	v, err := s.durable.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return string(v), nil
}

func (s *Store) RemoveRefreshToken(ctx context.Context) error {
	if err := s.durable.Delete(ctx, metadata.KeyRefreshToken); err != nil {
		return fmt.Errorf("remove refresh token: %w", err)
	}
	return nil
}
