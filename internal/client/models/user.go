// Package models defines the client-side data model of incidentauth: the
// cached user, request payloads and the uniform AuthResult outcome.
package models

import "time"

// User is the backend-owned account, cached by the client for the session.
// Email is immutable after registration.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"createdAt"`
	EmailVerified bool      `json:"emailVerified"`
}

// RegisterData is the payload of a registration request.
type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// untouched by the backend.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}
