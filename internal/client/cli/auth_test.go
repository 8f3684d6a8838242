package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/incidentauth/internal/client/client"
	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	svc.registerRes = &models.AuthResult{Success: true, User: svc.user}
	a := newTestApp(t, svc, "Ana María", " Ana@Example.com ", "300 123 4567", "Secret123", "Secret123")

	require.NoError(t, a.Register(context.Background()))

	require.Len(t, svc.registered, 1)
	got := svc.registered[0]
	assert.Equal(t, "Ana María", got.Name)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "Secret123", got.Password)
	assert.Contains(t, out.String(), "Success!")
}

func TestRegister_ValidationBlocksRequest(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "A", "ana@example.com", "3001234567", "Secret123", "Secret124")

	err := a.Register(context.Background())
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, svc.registered)
	assert.Contains(t, out.String(), "confirmPassword: Passwords do not match")
	assert.Contains(t, out.String(), "name: Name must be at least 2 characters long")
}

func TestRegister_Rejected(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	svc.registerRes = models.Failed("Email already registered")
	a := newTestApp(t, svc, "Ana", "ana@example.com", "3001234567", "Secret123", "Secret123")

	require.NoError(t, a.Register(context.Background()))
	assert.Contains(t, out.String(), "Registration failed: Email already registered")
}

func TestRegister_Unavailable(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	svc.registerErr = fmt.Errorf("register: %w", client.ErrUnavailable)
	a := newTestApp(t, svc, "Ana", "ana@example.com", "3001234567", "Secret123", "Secret123")

	require.ErrorIs(t, a.Register(context.Background()), client.ErrUnavailable)
	assert.Contains(t, out.String(), "Connection error, please try again later")
}

func TestLogin_Success(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "Ana@Example.com", "Secret123", "123456")

	require.NoError(t, a.Login(context.Background()))

	require.Len(t, svc.otpRequests, 1)
	assert.Equal(t, "ana@example.com", svc.otpRequests[0].Email)
	assert.Equal(t, "incidentauth-cli", svc.otpRequests[0].Device.Browser)
	assert.Equal(t, []models.OTPVerification{{SessionToken: "sess-1", Code: "123456"}}, svc.verified)

	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(ana@example.com)", a.getStatus())
	assert.Contains(t, out.String(), "OTP code sent to ana@example.com")
	assert.Contains(t, out.String(), "Welcome, Ana!")
}

func TestLogin_RetriesAfterWrongAndMalformedCodes(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "ana@example.com", "Secret123", "12ab56", "000000", "123456")

	require.NoError(t, a.Login(context.Background()))

	assert.Len(t, svc.verified, 2, "malformed code is not sent")
	assert.Contains(t, out.String(), "The code may only contain digits")
	assert.Contains(t, out.String(), "Verification failed: Invalid or expired code")
	assert.True(t, a.isLoggedIn())
}

func TestLogin_ResendTooEarlyThenBack(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "ana@example.com", "Secret123", "resend", "back")

	require.NoError(t, a.Login(context.Background()))

	assert.Len(t, svc.otpRequests, 1)
	assert.Contains(t, out.String(), "You can request a new code in 2:00")
	assert.Contains(t, out.String(), "Login cancelled")
	assert.False(t, a.isLoggedIn())
}

func TestLogin_InvalidCredentialsForm(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "not-an-email", "")

	require.ErrorIs(t, a.Login(context.Background()), common.ErrorValidation)
	assert.Empty(t, svc.otpRequests)
	assert.Contains(t, out.String(), "email: Enter a valid email address")
	assert.Contains(t, out.String(), "password: Password is required")
}

func TestLogin_Rejected(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	svc.otpResults = []*models.AuthResult{models.Failed("Invalid credentials")}
	a := newTestApp(t, svc, "ana@example.com", "Wrong123")

	require.NoError(t, a.Login(context.Background()))
	assert.Contains(t, out.String(), "Login failed: Invalid credentials")
	assert.Empty(t, svc.verified)
}

func TestLogin_Unavailable(t *testing.T) {
	out := captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	svc.otpErr = fmt.Errorf("request otp: %w", client.ErrUnavailable)
	a := newTestApp(t, svc, "ana@example.com", "Secret123")

	require.ErrorIs(t, a.Login(context.Background()), client.ErrUnavailable)
	assert.Contains(t, out.String(), "Connection error, please try again later")
}

func TestLogin_InputEndsAtCodePrompt(t *testing.T) {
	captureOutput(t)
	stubPrompts(t)
	svc := newFakeSvc()
	a := newTestApp(t, svc, "ana@example.com", "Secret123")

	require.Error(t, a.Login(context.Background()))
	assert.False(t, a.isLoggedIn())
}

func TestLogout(t *testing.T) {
	out := captureOutput(t)
	svc := newFakeSvc()
	a := loggedIn(t, svc)

	require.NoError(t, a.Logout(context.Background()))
	assert.Equal(t, 1, svc.logouts)
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, svc.store.refresh)
	assert.Contains(t, out.String(), "Logged out")
}

func TestRefresh(t *testing.T) {
	out := captureOutput(t)
	svc := newFakeSvc()
	a := loggedIn(t, svc)

	svc.refreshRes = models.Failed("Token expired")
	require.NoError(t, a.Refresh(context.Background()))
	assert.Contains(t, out.String(), "Session not refreshed: Token expired")

	svc.refreshRes = &models.AuthResult{Success: true}
	svc.user = &models.User{ID: "u1", Name: "Ana B", Email: "ana@example.com"}
	require.NoError(t, a.Refresh(context.Background()))
	assert.Contains(t, out.String(), "Session refreshed")
	assert.Equal(t, "Ana B", a.session.User().Name)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "2:00", formatRemaining(120e9))
	assert.Equal(t, "0:01", formatRemaining(1))
	assert.Equal(t, "0:00", formatRemaining(0))
	assert.Equal(t, "1:30", formatRemaining(89_500_000_000))
}
