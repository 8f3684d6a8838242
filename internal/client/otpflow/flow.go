// Package otpflow drives the two-step login: credentials first, then the
// one-time code mailed by the backend.
//
// The resend action is gated by a countdown (120 seconds by default). The
// countdown is display-only for submission: a code may still be submitted
// after it runs out, since expiry is enforced by the backend.
package otpflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/validation"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"golang.org/x/time/rate"
)

const (
	DefaultResendTimeout = 120 * time.Second
	DefaultTick          = time.Second
)

// MsgNoSession is returned when the password check passes without issuing
// a session token to redeem.
const MsgNoSession = "Could not start verification, please try again"

var (
	ErrWrongStep       = errors.New("action not available in this step")
	ErrResendNotReady  = errors.New("resend not available yet")
	ErrMissingProvider = errors.New("otp flow needs an authenticator")
)

type Step int

const (
	StepCredentials Step = iota
	StepOTP
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepOTP:
		return "otp"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Authenticator is the part of the auth service the flow needs.
type Authenticator interface {
	RequestOTP(ctx context.Context, req models.OTPRequest) (*models.AuthResult, error)
	VerifyOTP(ctx context.Context, req models.OTPVerification) (*models.AuthResult, error)
}

type Options struct {
	ResendTimeout time.Duration
	Tick          time.Duration
	OTPLength     int
	Device        *models.DeviceInfo

	// OnSuccess is called once the code has been accepted.
	OnSuccess func(res *models.AuthResult)
	// OnTick receives the remaining resend countdown, once per Tick, from a
	// separate goroutine. It must not block.
	OnTick func(remaining time.Duration)

	Now func() time.Time
}

// Flow is the login state machine. It is safe for concurrent use.
type Flow struct {
	auth Authenticator
	opts Options

	mu           sync.Mutex
	step         Step
	email        string
	password     string
	sessionToken string
	gate         *rate.Limiter
	stopTick     chan struct{}
}

func New(auth Authenticator, opts Options) (*Flow, error) {
	if auth == nil {
		return nil, ErrMissingProvider
	}
	if opts.ResendTimeout <= 0 {
		opts.ResendTimeout = DefaultResendTimeout
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.OTPLength <= 0 {
		opts.OTPLength = validation.DefaultOTPLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{auth: auth, opts: opts}, nil
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email is the normalized address of the current attempt.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// SubmitCredentials validates the form, then runs the password check. On
// success the flow moves to StepOTP and the resend countdown starts. A
// validation failure makes no network call and returns an error wrapping
// common.ErrorValidation.
func (f *Flow) SubmitCredentials(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if fe := validation.ValidateCredentials(email, password); len(fe) > 0 {
		return nil, fe.Err()
	}
	email = validation.NormalizeEmail(email)

	f.mu.Lock()
	if f.step != StepCredentials {
		f.mu.Unlock()
		return nil, ErrWrongStep
	}
	f.mu.Unlock()

	res, err := f.auth.RequestOTP(ctx, models.OTPRequest{Email: email, Password: password, Device: f.opts.Device})
	if err != nil || !res.Success {
		return res, err
	}
	if res.SessionToken == "" {
		return models.Failed(MsgNoSession), nil
	}

	f.mu.Lock()
	f.step = StepOTP
	f.email = email
	f.password = password
	f.sessionToken = res.SessionToken
	f.restartCountdownLocked()
	f.mu.Unlock()

	return res, nil
}

// SubmitCode verifies the code. Acceptance moves the flow to StepDone and
// fires OnSuccess; a rejection keeps StepOTP so the user can retry.
func (f *Flow) SubmitCode(ctx context.Context, code string) (*models.AuthResult, error) {
	if r := validation.ValidateOTP(code, f.opts.OTPLength); !r.Valid {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, r.Message)
	}

	f.mu.Lock()
	if f.step != StepOTP {
		f.mu.Unlock()
		return nil, ErrWrongStep
	}
	session := f.sessionToken
	f.mu.Unlock()

	res, err := f.auth.VerifyOTP(ctx, models.OTPVerification{SessionToken: session, Code: code})
	if err != nil || !res.Success {
		return res, err
	}

	f.mu.Lock()
	f.step = StepDone
	f.password = ""
	f.sessionToken = ""
	f.stopCountdownLocked()
	f.mu.Unlock()

	if f.opts.OnSuccess != nil {
		f.opts.OnSuccess(res)
	}
	return res, nil
}

// Resend repeats the password check to get a fresh code once the countdown
// has run out.
func (f *Flow) Resend(ctx context.Context) (*models.AuthResult, error) {
	f.mu.Lock()
	if f.step != StepOTP {
		f.mu.Unlock()
		return nil, ErrWrongStep
	}
	if !f.gate.AllowN(f.opts.Now(), 1) {
		f.mu.Unlock()
		return nil, ErrResendNotReady
	}
	req := models.OTPRequest{Email: f.email, Password: f.password, Device: f.opts.Device}
	f.mu.Unlock()

	res, err := f.auth.RequestOTP(ctx, req)
	if err == nil && res.Success && res.SessionToken == "" {
		res = models.Failed(MsgNoSession)
	}
	if err != nil || !res.Success {
		f.mu.Lock()
		// give the token back so the user can try again right away
		if f.step == StepOTP {
			f.gate = newGate(f.opts.ResendTimeout)
		}
		f.mu.Unlock()
		return res, err
	}

	f.mu.Lock()
	if f.step == StepOTP {
		f.sessionToken = res.SessionToken
		f.restartCountdownLocked()
	}
	f.mu.Unlock()
	return res, nil
}

// Back returns to the credentials step and forgets the attempt.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepCredentials
	f.resetLocked()
}

// Stop releases the countdown goroutine. The flow stays in its step.
func (f *Flow) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCountdownLocked()
}

// CanResend reports whether the resend countdown has run out.
func (f *Flow) CanResend() bool {
	return f.Remaining() == 0 && f.Step() == StepOTP
}

// Remaining is the time left before Resend is allowed.
func (f *Flow) Remaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remainingLocked()
}

func (f *Flow) remainingLocked() time.Duration {
	if f.gate == nil {
		return 0
	}
	tokens := f.gate.TokensAt(f.opts.Now())
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) * float64(f.opts.ResendTimeout))
}

func (f *Flow) resetLocked() {
	f.email = ""
	f.password = ""
	f.sessionToken = ""
	f.gate = nil
	f.stopCountdownLocked()
}

// newGate builds a resend gate that opens once per timeout. It starts full.
func newGate(timeout time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(timeout), 1)
}

func (f *Flow) restartCountdownLocked() {
	f.stopCountdownLocked()
	f.gate = newGate(f.opts.ResendTimeout)
	f.gate.AllowN(f.opts.Now(), 1)

	if f.opts.OnTick == nil {
		return
	}
	stop := make(chan struct{})
	f.stopTick = stop
	go f.countdown(stop)
}

func (f *Flow) stopCountdownLocked() {
	if f.stopTick != nil {
		close(f.stopTick)
		f.stopTick = nil
	}
}

func (f *Flow) countdown(stop <-chan struct{}) {
	t := time.NewTicker(f.opts.Tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			f.mu.Lock()
			select {
			case <-stop:
				f.mu.Unlock()
				return
			default:
			}
			left := f.remainingLocked()
			f.mu.Unlock()

			f.opts.OnTick(left)
			if left == 0 {
				return
			}
		}
	}
}
