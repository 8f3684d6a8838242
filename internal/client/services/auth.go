// Package services contains application services for the incidentauth client.
// This file defines the authentication service: registration, the two-step
// password + OTP login, logout, profile access and the local security log.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/client"
	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/notify"
	"github.com/dmitrijs2005/incidentauth/internal/client/securitylog"
	"github.com/dmitrijs2005/incidentauth/internal/client/tokens"
	"github.com/dmitrijs2005/incidentauth/internal/logging"
)

// MsgOTPSent is returned after a successful password check.
const MsgOTPSent = "OTP code sent"

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Expected rejections come back as AuthResult{Success: false}.
//   - A non-nil error means the backend was unreachable (wraps
//     client.ErrUnavailable) or local storage failed.
//   - Notifications are best-effort and never change the result.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, data models.RegisterData) (*models.AuthResult, error)
	RequestOTP(ctx context.Context, req models.OTPRequest) (*models.AuthResult, error)
	VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.AuthResult, error)
	RefreshSession(ctx context.Context) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.AuthResult, error)
	SecurityEvents(ctx context.Context, limit int) ([]models.SecurityEvent, error)
	IsAuthenticated(ctx context.Context) bool

	SetProvider(p client.Client)
	SetTokenStorage(s tokens.Storage)
	SetNotifier(n notify.Notifier)
	SetSecurityLogger(l securitylog.Logger)
}

// authService is the concrete AuthService composing a provider, a token
// store, a notifier and a security logger.
type authService struct {
	mu       sync.RWMutex
	provider client.Client
	tokens   tokens.Storage
	notifier notify.Notifier
	events   securitylog.Logger

	log logging.Logger
	now func() time.Time
}

// NewAuthService constructs an AuthService from its collaborators.
// A nil log discards records.
func NewAuthService(provider client.Client, store tokens.Storage, notifier notify.Notifier,
	events securitylog.Logger, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Discard()
	}
	return &authService{
		provider: provider,
		tokens:   store,
		notifier: notifier,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

func (a *authService) SetProvider(p client.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.provider = p
}

func (a *authService) SetTokenStorage(s tokens.Storage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = s
}

func (a *authService) SetNotifier(n notify.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifier = n
}

func (a *authService) SetSecurityLogger(l securitylog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = l
}

type deps struct {
	provider client.Client
	tokens   tokens.Storage
	notifier notify.Notifier
	events   securitylog.Logger
}

// snapshot returns the collaborators as of the start of an operation, so a
// concurrent Set* does not change them halfway through.
func (a *authService) snapshot() deps {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return deps{provider: a.provider, tokens: a.tokens, notifier: a.notifier, events: a.events}
}

// record appends a security event. Failures are logged and swallowed.
func (a *authService) record(ctx context.Context, d deps, typ models.SecurityEventType,
	status models.SecurityEventStatus, device *models.DeviceInfo) models.SecurityEvent {
	ev := securitylog.NewEvent(typ, status, device, a.now())
	if d.events == nil {
		return ev
	}
	if err := d.events.LogEvent(ctx, ev); err != nil {
		a.log.Warn(ctx, "security event not recorded", "type", typ, "error", err)
	}
	return ev
}

// Register creates the account and sends a best-effort welcome email.
func (a *authService) Register(ctx context.Context, data models.RegisterData) (*models.AuthResult, error) {
	d := a.snapshot()

	res, err := d.provider.Register(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if !res.Success || res.User == nil {
		return res, nil
	}

	if err := d.notifier.SendWelcome(ctx, res.User.Email, res.User.Name); err != nil {
		a.log.Warn(ctx, "welcome notification failed", "error", err)
	}
	return res, nil
}

// RequestOTP runs the password check. On success the backend is asked to
// deliver a code bound to the issued session token, and only the session
// token is returned.
func (a *authService) RequestOTP(ctx context.Context, req models.OTPRequest) (*models.AuthResult, error) {
	d := a.snapshot()

	res, err := d.provider.Login(ctx, req.Credentials())
	if err != nil {
		return nil, fmt.Errorf("request otp: %w", err)
	}
	// A success without a session token cannot be redeemed, so no code is
	// requested for it.
	if !res.Success || res.SessionToken == "" {
		return res, nil
	}

	// The user can ask for a resend if delivery did not go through.
	if err := d.notifier.SendOTP(ctx, req.Email, res.SessionToken); err != nil {
		a.log.Warn(ctx, "otp notification failed", "error", err)
	}
	a.record(ctx, d, models.EventOTPVerification, models.StatusSuccess, req.Device)

	return &models.AuthResult{Success: true, SessionToken: res.SessionToken, Message: MsgOTPSent}, nil
}

// VerifyOTP redeems the session token. On success both tokens are persisted
// and a login event is recorded.
func (a *authService) VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.AuthResult, error) {
	d := a.snapshot()

	res, err := d.provider.VerifyOTP(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !res.Success {
		a.record(ctx, d, models.EventOTPVerification, models.StatusFailed, nil)
		return res, nil
	}

	if err := a.storeTokens(ctx, d.tokens, res); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	a.record(ctx, d, models.EventLogin, models.StatusSuccess, nil)
	return res, nil
}

func (a *authService) storeTokens(ctx context.Context, s tokens.Storage, res *models.AuthResult) error {
	if res.Token != "" {
		if err := s.SetToken(ctx, res.Token); err != nil {
			return err
		}
	}
	if res.RefreshToken != "" {
		if err := s.SetRefreshToken(ctx, res.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}

// RefreshSession trades the durable refresh token for a new access token.
// A rejected refresh token is removed.
func (a *authService) RefreshSession(ctx context.Context) (*models.AuthResult, error) {
	d := a.snapshot()

	rt, err := d.tokens.RefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if rt == "" {
		return models.Failed("Not logged in"), nil
	}

	res, err := d.provider.RefreshToken(ctx, rt)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if !res.Success {
		if err := d.tokens.RemoveRefreshToken(ctx); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		return res, nil
	}

	if err := a.storeTokens(ctx, d.tokens, res); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return res, nil
}

// Logout clears local tokens first, then tells the backend, presenting the
// access token that was just cleared. Local state is cleared even when the
// backend cannot be reached. Without an access token there is no backend
// session to end and no call is made.
func (a *authService) Logout(ctx context.Context) error {
	d := a.snapshot()

	access, err := d.tokens.Token(ctx)
	if err != nil {
		a.log.Warn(ctx, "read access token for logout", "error", err)
		access = ""
	}

	if err := errors.Join(d.tokens.RemoveToken(ctx), d.tokens.RemoveRefreshToken(ctx)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if access == "" {
		return nil
	}
	if err := d.provider.Logout(ctx, access); err != nil {
		a.log.Warn(ctx, "backend logout failed", "error", err)
	}
	return nil
}

// GetProfile returns the current user, or nil when there is no session.
// A failed fetch is treated as an expired session: the access token is
// dropped and nil is returned.
func (a *authService) GetProfile(ctx context.Context) (*models.User, error) {
	d := a.snapshot()

	token, err := d.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	u, err := d.provider.Profile(ctx)
	if err != nil {
		a.log.Info(ctx, "profile fetch failed, dropping session", "error", err)
		if rmErr := d.tokens.RemoveToken(ctx); rmErr != nil {
			return nil, fmt.Errorf("get profile: %w", rmErr)
		}
		return nil, nil
	}
	return u, nil
}

// UpdateProfile forwards the edit. A successful edit is recorded and the user
// gets a best-effort security alert.
func (a *authService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.AuthResult, error) {
	d := a.snapshot()

	res, err := d.provider.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if !res.Success {
		return res, nil
	}

	ev := a.record(ctx, d, models.EventProfileUpdate, models.StatusSuccess, nil)
	if res.User != nil && res.User.Email != "" {
		if err := d.notifier.SendSecurityAlert(ctx, res.User.Email, ev); err != nil {
			a.log.Warn(ctx, "security alert failed", "error", err)
		}
	}
	return res, nil
}

// SecurityEvents returns the newest events first. limit <= 0 means
// securitylog.DefaultLimit.
func (a *authService) SecurityEvents(ctx context.Context, limit int) ([]models.SecurityEvent, error) {
	d := a.snapshot()
	if d.events == nil {
		return nil, nil
	}
	evs, err := d.events.Events(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("security events: %w", err)
	}
	return evs, nil
}

// IsAuthenticated only checks that an access token is present; expiry and
// signature are the backend's business.
func (a *authService) IsAuthenticated(ctx context.Context) bool {
	token, err := a.snapshot().tokens.Token(ctx)
	return err == nil && token != ""
}
