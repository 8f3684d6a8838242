package client

import (
	"context"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
)

// Client is the auth provider: the network calls behind the auth service.
//
// Expected backend rejections come back as *models.AuthResult with
// Success == false. A non-nil error wraps one of:
//   - ErrUnavailable: the backend could not be reached or answered 5xx
//   - ErrMalformedResponse: a success answer that could not be decoded
//   - ErrUnauthorized: Profile was refused with 401/403
//   - ErrUnexpectedStatus: Logout got a non-success answer
type Client interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, data models.RegisterData) (*models.AuthResult, error)
	VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResult, error)
	// Logout ends the backend session of accessToken. The token is passed
	// in because callers clear local state before telling the backend.
	Logout(ctx context.Context, accessToken string) error
	// Profile fails on any non-success answer; ErrUnauthorized for 401/403.
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.AuthResult, error)
}

// TokenSource hands out the current access token for authorized calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
