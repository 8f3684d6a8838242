package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/incidentauth/internal/client/client"
	"github.com/dmitrijs2005/incidentauth/internal/client/config"
	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/notify"
	"github.com/dmitrijs2005/incidentauth/internal/client/securitylog"
	"github.com/dmitrijs2005/incidentauth/internal/client/services"
	"github.com/dmitrijs2005/incidentauth/internal/client/tokens"
	"github.com/dmitrijs2005/incidentauth/internal/logging"
)

// ------------ helpers ------------

func readerFromLines(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

// captureOutput redirects printlnFn into a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&buf, a...) }
	t.Cleanup(func() { printlnFn = orig })
	return &buf
}

// stubPrompts makes getSimpleText and getPassword read plain lines from the
// app reader without printing prompts.
func stubPrompts(t *testing.T) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(r *bufio.Reader, _ string, _ io.Writer) (string, error) {
		return GetSimpleText(r, "", io.Discard)
	}
	getPassword = func(r *bufio.Reader, _ string, _ io.Writer) ([]byte, error) {
		s, err := GetSimpleText(r, "", io.Discard)
		return []byte(s), err
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

// ------------ fakes ------------

type memTokens struct {
	access, refresh string
}

func (m *memTokens) SetToken(_ context.Context, t string) error        { m.access = t; return nil }
func (m *memTokens) Token(context.Context) (string, error)             { return m.access, nil }
func (m *memTokens) RemoveToken(context.Context) error                 { m.access = ""; return nil }
func (m *memTokens) SetRefreshToken(_ context.Context, t string) error { m.refresh = t; return nil }
func (m *memTokens) RefreshToken(context.Context) (string, error)      { return m.refresh, nil }
func (m *memTokens) RemoveRefreshToken(context.Context) error          { m.refresh = ""; return nil }

// fakeSvc is a scripted AuthService. Tokens go to the shared memTokens so
// GetProfile and IsAuthenticated behave like the real service.
type fakeSvc struct {
	store *memTokens

	user        *models.User
	registerRes *models.AuthResult
	registerErr error
	otpResults  []*models.AuthResult
	otpErr      error
	verifyCodes map[string]bool
	refreshRes  *models.AuthResult
	updateRes   *models.AuthResult
	events      []models.SecurityEvent

	registered  []models.RegisterData
	otpRequests []models.OTPRequest
	verified    []models.OTPVerification
	updates     []models.ProfileUpdate
	eventLimit  int
	logouts     int
	refreshes   int
}

var _ services.AuthService = (*fakeSvc)(nil)

func (f *fakeSvc) Register(_ context.Context, d models.RegisterData) (*models.AuthResult, error) {
	f.registered = append(f.registered, d)
	return f.registerRes, f.registerErr
}

func (f *fakeSvc) RequestOTP(_ context.Context, r models.OTPRequest) (*models.AuthResult, error) {
	f.otpRequests = append(f.otpRequests, r)
	if f.otpErr != nil {
		return nil, f.otpErr
	}
	res := f.otpResults[0]
	if len(f.otpResults) > 1 {
		f.otpResults = f.otpResults[1:]
	}
	return res, nil
}

func (f *fakeSvc) VerifyOTP(_ context.Context, v models.OTPVerification) (*models.AuthResult, error) {
	f.verified = append(f.verified, v)
	if !f.verifyCodes[v.Code] {
		return models.Failed("Invalid or expired code"), nil
	}
	f.store.access, f.store.refresh = "at", "rt"
	return &models.AuthResult{Success: true, Token: "at", RefreshToken: "rt"}, nil
}

func (f *fakeSvc) RefreshSession(context.Context) (*models.AuthResult, error) {
	f.refreshes++
	switch {
	case f.refreshRes == nil:
		return models.Failed("Token expired"), nil
	case f.refreshRes.Success:
		f.store.access = "at"
	default:
		f.store.refresh = ""
	}
	return f.refreshRes, nil
}

func (f *fakeSvc) Logout(context.Context) error {
	f.logouts++
	f.store.access, f.store.refresh = "", ""
	return nil
}

func (f *fakeSvc) GetProfile(context.Context) (*models.User, error) {
	if f.store.access == "" {
		return nil, nil
	}
	return f.user, nil
}

func (f *fakeSvc) UpdateProfile(_ context.Context, u models.ProfileUpdate) (*models.AuthResult, error) {
	f.updates = append(f.updates, u)
	if f.updateRes != nil && f.updateRes.Success && u.Name != nil {
		f.user.Name = *u.Name
	}
	return f.updateRes, nil
}

func (f *fakeSvc) SecurityEvents(_ context.Context, limit int) ([]models.SecurityEvent, error) {
	f.eventLimit = limit
	return f.events, nil
}

func (f *fakeSvc) IsAuthenticated(context.Context) bool { return f.store.access != "" }

func (f *fakeSvc) SetProvider(client.Client)            {}
func (f *fakeSvc) SetTokenStorage(tokens.Storage)       {}
func (f *fakeSvc) SetNotifier(notify.Notifier)          {}
func (f *fakeSvc) SetSecurityLogger(securitylog.Logger) {}

func newFakeSvc() *fakeSvc {
	return &fakeSvc{
		store:       &memTokens{},
		user:        &models.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Phone: "3001234567"},
		otpResults:  []*models.AuthResult{{Success: true, SessionToken: "sess-1", Message: services.MsgOTPSent}},
		verifyCodes: map[string]bool{"123456": true},
	}
}

func newTestApp(t *testing.T, svc *fakeSvc, lines ...string) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return newApp(cfg, svc, svc.store, readerFromLines(lines...), logging.Discard())
}

// loggedIn returns an app whose session already holds the fake user.
func loggedIn(t *testing.T, svc *fakeSvc, lines ...string) *App {
	t.Helper()
	svc.store.access, svc.store.refresh = "at", "rt"
	a := newTestApp(t, svc, lines...)
	if _, err := a.session.Load(context.Background()); err != nil {
		t.Fatalf("load session: %v", err)
	}
	return a
}
