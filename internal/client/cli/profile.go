package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/tokens"
	"github.com/dmitrijs2005/incidentauth/internal/client/validation"
)

const notLoggedIn = "Not logged in. Use 'login' first."

// Profile prints the cached user.
func (a *App) Profile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		printlnFn(notLoggedIn)
		return nil
	}

	verified := "no"
	if u.EmailVerified {
		verified = "yes"
	}
	printlnFn("Name:    ", u.Name)
	printlnFn("Email:   ", u.Email, "(verified: "+verified+")")
	printlnFn("Phone:   ", u.Phone)
	if !u.CreatedAt.IsZero() {
		printlnFn("Member since", u.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

// UpdateProfile asks for a new name and phone. Empty answers keep the
// current value; email cannot be changed.
func (a *App) UpdateProfile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		printlnFn(notLoggedIn)
		return nil
	}

	name, err := getSimpleText(a.reader, fmt.Sprintf("Name [%s] (Enter to keep)", u.Name), os.Stdout)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, fmt.Sprintf("Phone [%s] (Enter to keep)", u.Phone), os.Stdout)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	fe := validation.FieldErrors{}
	if name = validation.SanitizeInput(name); name != "" && name != u.Name {
		if r := validation.ValidateName(name); !r.Valid {
			fe[validation.FieldName] = r.Message
		}
		upd.Name = &name
	}
	if phone = validation.SanitizeInput(phone); phone != "" && phone != u.Phone {
		if !validation.ValidatePhone(phone) {
			fe[validation.FieldPhone] = "Enter a valid phone number"
		}
		upd.Phone = &phone
	}
	if len(fe) > 0 {
		printlnFn("Please fix the following:")
		printFieldErrors(fe)
		return fe.Err()
	}
	if upd.Name == nil && upd.Phone == nil {
		printlnFn("Nothing to update")
		return nil
	}

	res, err := a.authService.UpdateProfile(ctx, upd)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if !res.Success {
		printlnFn("Update failed:", res.Message)
		return nil
	}

	if _, err := a.session.RefreshUser(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	printlnFn("Profile updated")
	return nil
}

// Events prints the most recent security events, newest first. An optional
// argument sets how many.
func (a *App) Events(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			printlnFn("Usage: events [n]")
			return nil
		}
		limit = n
	}

	evs, err := a.authService.SecurityEvents(ctx, limit)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if len(evs) == 0 {
		printlnFn("No security events recorded")
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSTATUS\tDEVICE\tLOCATION")
	for _, ev := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ev.Timestamp.Local().Format(time.DateTime), ev.Type, ev.Status, ev.Device, ev.Location)
	}
	_ = tw.Flush()
	printlnFn(strings.TrimRight(b.String(), "\n"))
	return nil
}

// Status shows whether an access token is held and what it claims. The
// token is decoded, not verified.
func (a *App) Status(ctx context.Context) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	refresh, err := a.tokens.RefreshToken(ctx)
	if err != nil {
		a.report(ctx, err)
		return err
	}

	if token == "" {
		printlnFn("Access token: none")
	} else {
		claims, err := tokens.Inspect(token)
		switch {
		case err != nil:
			printlnFn("Access token: present (opaque)")
		case claims.ExpiresAt.IsZero():
			printlnFn("Access token: subject", claims.Subject, "(no expiry)")
		case claims.Expired(time.Now()):
			printlnFn("Access token: subject", claims.Subject, "expired at", claims.ExpiresAt.Local().Format(time.DateTime))
		default:
			printlnFn("Access token: subject", claims.Subject, "valid until", claims.ExpiresAt.Local().Format(time.DateTime))
		}
	}

	if refresh == "" {
		printlnFn("Refresh token: none")
	} else {
		printlnFn("Refresh token: stored")
	}
	return nil
}
