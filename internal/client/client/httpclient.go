package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"github.com/dmitrijs2005/incidentauth/internal/logging"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// Default user-facing messages when the backend gives none.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgOTPSent            = "OTP sent"
	msgRegisterFailed     = "Registration failed"
	msgRegistered         = "Registration successful"
	msgInvalidCode        = "Invalid or expired code"
	msgTokenExpired       = "Token expired"
	msgUpdateFailed       = "Profile update failed"
)

// HTTPClient implements Client against the REST backend.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	log        logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient builds a client for the API rooted at baseURL, which must be
// absolute (e.g. "http://localhost:3000/api").
func NewHTTPClient(baseURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}

	c := &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// response is a fully read backend answer.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// message extracts {"message": "..."} from an error body, or returns def.
func (r *response) message(def string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &payload); err != nil || payload.Message == "" {
		return def
	}
	return payload.Message
}

func (r *response) decode(path string, v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// do sends one JSON request, attaching the stored access token when
// authorized is set.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, authorized bool) (*response, error) {
	var token string
	if authorized && c.tokens != nil {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		token = t
	}
	return c.send(ctx, method, path, body, token)
}

// send performs the request with an explicit bearer token ("" sends none).
// Transport failures and 5xx answers are mapped to ErrUnavailable; any other
// status is returned to the caller to interpret.
func (c *HTTPClient) send(ctx context.Context, method, path string, body any, token string) (*response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrUnavailable, path, err)
	}

	c.log.Debug(ctx, "backend request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, path, resp.StatusCode)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// PostJSON sends body to path and only cares whether it was accepted. Used
// for fire-and-forget notification endpoints.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body any) error {
	resp, err := c.do(ctx, http.MethodPost, path, body, false)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("%w: POST %s returned %d", ErrUnexpectedStatus, path, resp.status)
	}
	return nil
}

// Login runs the password check. On success the backend issues a session
// token redeemable for one OTP verification.
func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	const path = "/auth/login"

	resp, err := c.do(ctx, http.MethodPost, path, creds, false)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return models.Failed(resp.message(msgInvalidCredentials)), nil
	}

	var payload struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := resp.decode(path, &payload); err != nil {
		return nil, err
	}
	return &models.AuthResult{Success: true, SessionToken: payload.SessionToken, Message: msgOTPSent}, nil
}

func (c *HTTPClient) Register(ctx context.Context, data models.RegisterData) (*models.AuthResult, error) {
	const path = "/auth/register"

	resp, err := c.do(ctx, http.MethodPost, path, data, false)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return models.Failed(resp.message(msgRegisterFailed)), nil
	}

	var payload struct {
		User *models.User `json:"user"`
	}
	if err := resp.decode(path, &payload); err != nil {
		return nil, err
	}
	return &models.AuthResult{Success: true, User: payload.User, Message: msgRegistered}, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.AuthResult, error) {
	const path = "/auth/verify-otp"

	resp, err := c.do(ctx, http.MethodPost, path, req, false)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return models.Failed(resp.message(msgInvalidCode)), nil
	}

	var payload struct {
		Token        string       `json:"token"`
		RefreshToken string       `json:"refreshToken"`
		User         *models.User `json:"user"`
	}
	if err := resp.decode(path, &payload); err != nil {
		return nil, err
	}
	return &models.AuthResult{
		Success:      true,
		Token:        payload.Token,
		RefreshToken: payload.RefreshToken,
		User:         payload.User,
	}, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	const path = "/auth/refresh"

	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"token": refreshToken}, false)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return models.Failed(msgTokenExpired), nil
	}

	var payload struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := resp.decode(path, &payload); err != nil {
		return nil, err
	}
	return &models.AuthResult{Success: true, Token: payload.Token, RefreshToken: payload.RefreshToken}, nil
}

// Logout tells the backend to drop the server-side session of accessToken.
// The token source is not consulted.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.send(ctx, http.MethodPost, "/auth/logout", nil, accessToken)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("%w: logout returned %d", ErrUnexpectedStatus, resp.status)
	}
	return nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	const path = "/auth/profile"

	resp, err := c.do(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: profile returned %d", ErrUnauthorized, resp.status)
	case !resp.ok():
		return nil, fmt.Errorf("%w: profile returned %d", ErrUnexpectedStatus, resp.status)
	}

	var u models.User
	if err := resp.decode(path, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.AuthResult, error) {
	const path = "/auth/profile"

	resp, err := c.do(ctx, http.MethodPatch, path, upd, true)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return models.Failed(resp.message(msgUpdateFailed)), nil
	}

	var payload struct {
		User *models.User `json:"user"`
	}
	if err := resp.decode(path, &payload); err != nil {
		return nil, err
	}
	return &models.AuthResult{Success: true, User: payload.User}, nil
}
