// Package session holds the process-wide current-user state of the client.
//
// A Session is created once at startup, loaded from the token store and
// passed to the presentation layer. It caches the User returned by the auth
// service; a nil User means "not authenticated".
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/services"
)

// State is a point-in-time snapshot of the session.
type State struct {
	User          *models.User
	Loading       bool
	Authenticated bool
}

type Session struct {
	svc services.AuthService

	mu      sync.Mutex
	user    *models.User
	loading bool
	gen     uint64 // bumped by every load and by Close
	closed  bool
}

func New(svc services.AuthService) *Session {
	return &Session{svc: svc}
}

// Load fetches the current profile and caches it. While the fetch is in
// flight State reports Loading. A load that completes after a newer load
// started, or after Close, is discarded.
func (s *Session) Load(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	u, err := s.svc.GetProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return u, err
	}
	s.loading = false
	if err != nil {
		s.user = nil
		return nil, err
	}
	s.user = u
	return u, nil
}

// RefreshUser re-runs Load, fully replacing the cached user.
func (s *Session) RefreshUser(ctx context.Context) (*models.User, error) {
	return s.Load(ctx)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading, Authenticated: s.user != nil}
}

// User returns the cached user or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Login starts the two-step login. It does not change the cached user;
// call Load once the code has been verified.
func (s *Session) Login(ctx context.Context, req models.OTPRequest) (*models.AuthResult, error) {
	return s.svc.RequestOTP(ctx, req)
}

func (s *Session) Register(ctx context.Context, data models.RegisterData) (*models.AuthResult, error) {
	return s.svc.Register(ctx, data)
}

// Logout clears the tokens and the cached user.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.user = nil
	s.loading = false
	s.mu.Unlock()

	return s.svc.Logout(ctx)
}

// Close tears the session down. Loads still in flight are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.loading = false
}
