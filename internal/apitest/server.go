// Package apitest runs an in-memory fake of the incidentauth REST API on an
// httptest server. It issues real HS256 access tokens, rotates refresh
// tokens and records notification requests, so client code can be tested
// end to end without a backend.
//
// The fake accepts a single fixed OTP code (Server.Code); it does not
// generate or mail codes.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultCode is the OTP code the fake accepts unless Server.Code is changed.
const DefaultCode = "123456"

// Notification is one recorded POST /notifications/{kind} request.
type Notification struct {
	Kind string
	Body map[string]any
}

type account struct {
	user     models.User
	password string
}

type refreshToken struct {
	userID  string
	expires time.Time
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	code          string
	failLogout    bool
	accounts      map[string]*account // by email
	sessions      map[string]string   // session token -> email
	refreshTokens map[string]refreshToken
	revoked       map[string]bool // access tokens ended by logout
	notifications []Notification
	hits          map[string]int

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type Option func(*Server)

func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Server) { s.accessTTL, s.refreshTTL = access, refresh }
}

// WithFailingLogout makes POST /auth/logout answer 500.
func WithFailingLogout() Option {
	return func(s *Server) { s.failLogout = true }
}

// New starts the fake and closes it when the test ends.
func New(t interface{ Cleanup(func()) }, opts ...Option) *Server {
	s := &Server{
		code:          DefaultCode,
		accounts:      map[string]*account{},
		sessions:      map[string]string{},
		refreshTokens: map[string]refreshToken{},
		revoked:       map[string]bool{},
		hits:          map[string]int{},
		secret:        []byte(uuid.NewString()),
		accessTTL:     15 * time.Minute,
		refreshTTL:    24 * time.Hour,
	}
	for _, o := range opts {
		o(s)
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to client.NewHTTPClient.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// SetCode changes the accepted OTP code.
func (s *Server) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// Notifications returns the recorded notification requests of kind, or all
// of them when kind is empty.
func (s *Server) Notifications(kind string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.notifications {
		if kind == "" || n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Hits reports how many times "METHOD /path" was requested.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Revoked reports whether token was ended by a successful logout.
func (s *Server) Revoked(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[token]
}

// Secret is the HS256 signing key, for tests that verify issued tokens.
func (s *Server) Secret() []byte { return s.secret }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)
		r.Post("/auth/verify-otp", s.verifyOTP)
		r.Post("/auth/refresh", s.refresh)
		r.Post("/notifications/{kind}", s.notify)

		r.Group(func(r chi.Router) {
			r.Use(s.bearer)
			r.Post("/auth/logout", s.logout)
			r.Get("/auth/profile", s.profile)
			r.Patch("/auth/profile", s.updateProfile)
		})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const (
	userIDKey ctxKey = "userID"
	tokenKey  ctxKey = "token"
)

// bearer rejects requests without a valid, unrevoked access token and puts
// the token and its user ID in the request context.
func (s *Server) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(h, common.BearerPrefix)
		if !ok || token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing token")
			return
		}
		userID, err := GetUserIDFromToken(token, s.secret)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		if s.Revoked(token) {
			writeMessage(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, tokenKey, token)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return false
	}
	return true
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var d models.RegisterData
	if !decode(w, r, &d) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[d.Email]; exists {
		writeMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	u := models.User{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.accounts[d.Email] = &account{user: u, password: d.Password}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	if !decode(w, r, &c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[c.Email]
	if !ok || acc.password != c.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	session := uuid.NewString()
	s.sessions[session] = c.Email
	writeJSON(w, http.StatusOK, map[string]string{"sessionToken": session})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var v models.OTPVerification
	if !decode(w, r, &v) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[v.SessionToken]
	if !ok || v.Code != s.code {
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired code")
		return
	}
	delete(s.sessions, v.SessionToken)

	acc := s.accounts[email]
	acc.user.EmailVerified = true
	access, refresh, err := s.issueLocked(acc.user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": access, "refreshToken": refresh, "user": acc.user})
}

// issueLocked mints an access token and a stored refresh token.
func (s *Server) issueLocked(userID string) (string, string, error) {
	access, err := GenerateToken(userID, s.secret, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh := uuid.NewString()
	s.refreshTokens[refresh] = refreshToken{userID: userID, expires: time.Now().Add(s.refreshTTL)}
	return access, refresh, nil
}

// refresh rotates a refresh token: the old one is deleted, a new pair issued.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refreshTokens[body.Token]
	if !ok {
		writeMessage(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
		return
	}
	delete(s.refreshTokens, body.Token)
	if rt.expires.Before(time.Now()) {
		writeMessage(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		return
	}

	access, refresh, err := s.issueLocked(rt.userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": access, "refreshToken": refresh})
}

// logout revokes the presented access token.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogout {
		writeMessage(w, http.StatusInternalServerError, "logout failed")
		return
	}
	s.revoked[token] = true
	w.WriteHeader(http.StatusNoContent)
}

// accountByIDLocked finds the account owning userID.
func (s *Server) accountByIDLocked(userID string) *account {
	for _, a := range s.accounts {
		if a.user.ID == userID {
			return a
		}
	}
	return nil
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByIDLocked(userID)
	if acc == nil {
		writeMessage(w, http.StatusNotFound, common.ErrorNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)
	var upd models.ProfileUpdate
	if !decode(w, r, &upd) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByIDLocked(userID)
	if acc == nil {
		writeMessage(w, http.StatusNotFound, common.ErrorNotFound.Error())
		return
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			writeMessage(w, http.StatusUnprocessableEntity, "Name cannot be empty")
			return
		}
		acc.user.Name = *upd.Name
	}
	if upd.Phone != nil {
		acc.user.Phone = *upd.Phone
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.user})
}

func (s *Server) notify(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{Kind: chi.URLParam(r, "kind"), Body: body})
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}
