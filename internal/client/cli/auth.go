package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/otpflow"
	"github.com/dmitrijs2005/incidentauth/internal/client/validation"
	"github.com/dmitrijs2005/incidentauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const (
	codeResend = "resend"
	codeBack   = "back"
)

func printFieldErrors(fe validation.FieldErrors) {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printlnFn(fmt.Sprintf("  %s: %s", k, fe[k]))
	}
}

// Register prompts for the registration form, validates it locally and
// creates the account. Validation failures are printed per field and no
// request is sent.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Full name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Phone", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.reader, "Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	data := models.RegisterData{
		Name:     validation.SanitizeInput(name),
		Email:    validation.NormalizeEmail(email),
		Phone:    validation.SanitizeInput(phone),
		Password: string(password),
	}
	if fe := validation.ValidateRegistration(data, string(confirm)); len(fe) > 0 {
		printlnFn("Please fix the following:")
		printFieldErrors(fe)
		return fe.Err()
	}

	res, err := a.session.Register(ctx, data)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if !res.Success {
		printlnFn("Registration failed:", res.Message)
		return nil
	}

	printlnFn("Success! You can now log in.")
	return nil
}

// Login runs the two-step login. After the password check the user is
// asked for the emailed code; "resend" asks for a new code once the
// countdown has run out and "back" abandons the attempt.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	flow, err := otpflow.New(a.authService, otpflow.Options{
		ResendTimeout: a.config.OTPResendTimeout,
		Device:        a.device,
	})
	if err != nil {
		return err
	}
	defer flow.Stop()

	res, err := flow.SubmitCredentials(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			printlnFn("Please fix the following:")
			printFieldErrors(validation.ValidateCredentials(email, string(password)))
			return err
		}
		a.report(ctx, err)
		return err
	}
	if !res.Success {
		printlnFn("Login failed:", res.Message)
		return nil
	}
	printlnFn(fmt.Sprintf("%s to %s", res.Message, flow.Email()))

	return a.enterCode(ctx, flow)
}

func (a *App) enterCode(ctx context.Context, flow *otpflow.Flow) error {
	for {
		prompt := fmt.Sprintf("Enter the %d-digit code (%s, '%s' to start over)",
			validation.DefaultOTPLength, resendHint(flow), codeBack)
		code, err := getSimpleText(a.reader, prompt, os.Stdout)
		if err != nil {
			return err
		}

		switch code {
		case codeBack:
			flow.Back()
			printlnFn("Login cancelled")
			return nil

		case codeResend:
			res, err := flow.Resend(ctx)
			switch {
			case errors.Is(err, otpflow.ErrResendNotReady):
				printlnFn(fmt.Sprintf("You can request a new code in %s", formatRemaining(flow.Remaining())))
			case err != nil:
				a.report(ctx, err)
			case !res.Success:
				printlnFn("Could not resend:", res.Message)
			default:
				printlnFn("A new code is on its way")
			}
			continue
		}

		res, err := flow.SubmitCode(ctx, code)
		switch {
		case errors.Is(err, common.ErrorValidation):
			printlnFn(validation.ValidateOTP(code, validation.DefaultOTPLength).Message)
			continue
		case err != nil:
			a.report(ctx, err)
			continue
		case !res.Success:
			printlnFn("Verification failed:", res.Message)
			continue
		}

		u, err := a.session.Load(ctx)
		if err != nil {
			a.report(ctx, err)
		}
		if u != nil {
			printlnFn(fmt.Sprintf("Welcome, %s!", u.Name))
		} else {
			printlnFn("Login successful")
		}
		return nil
	}
}

func resendHint(flow *otpflow.Flow) string {
	if flow.CanResend() {
		return fmt.Sprintf("'%s' for a new code", codeResend)
	}
	return "new code available in " + formatRemaining(flow.Remaining())
}

// formatRemaining renders a countdown as m:ss, rounding up to whole seconds.
func formatRemaining(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Logout clears local tokens and the cached user. The backend is told on a
// best-effort basis.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	printlnFn("Logged out")
	return nil
}

// Refresh trades the stored refresh token for a new access token and reloads
// the user.
func (a *App) Refresh(ctx context.Context) error {
	res, err := a.authService.RefreshSession(ctx)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if !res.Success {
		printlnFn("Session not refreshed:", res.Message)
		return nil
	}
	if _, err := a.session.RefreshUser(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	printlnFn("Session refreshed")
	return nil
}
