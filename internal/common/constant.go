// Package common contains shared constants and sentinel errors used across
// incidentauth components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on outbound profile requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// UnknownDevice is recorded in security events when the caller did not
// supply device or location metadata.
const UnknownDevice = "Unknown"
