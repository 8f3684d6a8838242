// Package cli provides the interactive incidentauth command-line client.
//
// It wires configuration, local storage, the REST auth provider and an
// interactive REPL. Typical flow: load the session from stored tokens, then
// execute user commands until exit.
//
// Key features:
//   - Register with per-field validation
//   - Login in two steps: credentials, then the emailed one-time code
//     (type "resend" or "back" at the code prompt)
//   - Profile view and update
//   - Security event log
//   - Session refresh, token status and logout
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
