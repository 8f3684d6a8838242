package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	u := a.session.User()
	if u == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", u.Email)
}

// resume trades a stored refresh token for an access token when the
// process starts without one. A rejected refresh token is dropped by the
// service and the user starts logged out.
func (a *App) resume(ctx context.Context) error {
	access, err := a.tokens.Token(ctx)
	if err != nil || access != "" {
		return err
	}
	refresh, err := a.tokens.RefreshToken(ctx)
	if err != nil || refresh == "" {
		return err
	}

	res, err := a.authService.RefreshSession(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		a.log.Info(ctx, "stored session not resumed", "reason", res.Message)
	}
	return nil
}

// Root resumes the stored session, loads the user and runs the REPL until
// the user exits or input ends.
func (a *App) Root(ctx context.Context) error {
	printlnFn("Welcome to incidentauth CLI (type 'help' for commands)")

	if err := a.resume(ctx); err != nil {
		a.report(ctx, err)
	}

	u, err := a.session.Load(ctx)
	if err != nil {
		a.report(ctx, err)
	}
	if u != nil {
		printlnFn(fmt.Sprintf("Signed in as %s <%s>", u.Name, u.Email))
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}
