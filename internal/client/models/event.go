package models

import "time"

type SecurityEventType string

const (
	EventLogin           SecurityEventType = "login"
	EventPasswordChange  SecurityEventType = "password_change"
	EventOTPVerification SecurityEventType = "otp_verification"
	EventProfileUpdate   SecurityEventType = "profile_update"
)

type SecurityEventStatus string

const (
	StatusSuccess SecurityEventStatus = "success"
	StatusFailed  SecurityEventStatus = "failed"
)

// SecurityEvent is one append-only entry of the local security log.
type SecurityEvent struct {
	ID        string              `json:"id"`
	Type      SecurityEventType   `json:"type"`
	Device    string              `json:"device"`
	Location  string              `json:"location"`
	Timestamp time.Time           `json:"timestamp"`
	Status    SecurityEventStatus `json:"status"`
}
