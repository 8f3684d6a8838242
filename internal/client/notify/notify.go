// Package notify asks the backend to deliver user-facing notifications:
// the OTP email, the welcome email and security alerts. Delivery itself is
// owned by the backend; the client only posts a request.
package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
)

const (
	PathOTP      = "/notifications/otp"
	PathWelcome  = "/notifications/welcome"
	PathSecurity = "/notifications/security"
)

// Notifier is consumed by the auth service. Callers treat welcome and
// security notifications as best-effort.
type Notifier interface {
	// SendOTP asks the backend to email the code bound to sessionToken.
	SendOTP(ctx context.Context, email, sessionToken string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendSecurityAlert(ctx context.Context, email string, ev models.SecurityEvent) error
}

// Poster sends a JSON body and reports whether it was accepted.
// *client.HTTPClient satisfies it.
type Poster interface {
	PostJSON(ctx context.Context, path string, body any) error
}

// HTTPNotifier implements Notifier over the backend notification endpoints.
type HTTPNotifier struct {
	poster Poster
}

func NewHTTPNotifier(p Poster) *HTTPNotifier {
	return &HTTPNotifier{poster: p}
}

type otpPayload struct {
	Email        string `json:"email"`
	SessionToken string `json:"sessionToken"`
}

type welcomePayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type securityPayload struct {
	Email string               `json:"email"`
	Event models.SecurityEvent `json:"event"`
}

func (n *HTTPNotifier) SendOTP(ctx context.Context, email, sessionToken string) error {
	if err := n.poster.PostJSON(ctx, PathOTP, otpPayload{Email: email, SessionToken: sessionToken}); err != nil {
		return fmt.Errorf("send otp notification: %w", err)
	}
	return nil
}

func (n *HTTPNotifier) SendWelcome(ctx context.Context, email, name string) error {
	if err := n.poster.PostJSON(ctx, PathWelcome, welcomePayload{Email: email, Name: name}); err != nil {
		return fmt.Errorf("send welcome notification: %w", err)
	}
	return nil
}

func (n *HTTPNotifier) SendSecurityAlert(ctx context.Context, email string, ev models.SecurityEvent) error {
	if err := n.poster.PostJSON(ctx, PathSecurity, securityPayload{Email: email, Event: ev}); err != nil {
		return fmt.Errorf("send security alert: %w", err)
	}
	return nil
}
