// Package client contains the client-side building blocks that talk to the
// outside world: the auth backend and the local database.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic provider contract (see the Client interface):
//     Login (password check), Register, VerifyOTP, RefreshToken, Logout,
//     Profile and UpdateProfile.
//  2. A REST implementation (see HTTPClient) that speaks JSON to the
//     /auth/* endpoints, attaches the bearer access token to profile calls
//     and maps transport failures to sentinel errors. It also exposes
//     PostJSON for the best-effort /notifications/* calls.
//  3. Local persistence bootstrap (OpenDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Expected rejections (bad credentials, expired code, duplicate account) are
// results, not errors. Errors are reserved for conditions callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrUnexpectedStatus,
// ErrMalformedResponse.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
