package models

// AuthResult is the tagged outcome of every auth operation. Expected
// rejections (bad credentials, expired code, duplicate account) come back
// with Success == false and a user-facing Message, never as an error.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	// SessionToken is issued after the password check and is only good for
	// redeeming one OTP code.
	SessionToken string `json:"sessionToken,omitempty"`

	User *User `json:"user,omitempty"`
}

// Failed builds a rejected result with the given message.
func Failed(message string) *AuthResult {
	return &AuthResult{Success: false, Message: message}
}

// Credentials are the email/password pair sent to the password check.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DeviceInfo is coarse client metadata, used only for the security log.
type DeviceInfo struct {
	Browser  string
	OS       string
	Location string
}

// OTPRequest starts the two-step login.
type OTPRequest struct {
	Email    string
	Password string
	Device   *DeviceInfo
}

// Credentials strips the device metadata, which never leaves the client.
func (r OTPRequest) Credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}

// OTPVerification redeems a session token with the code the user received.
type OTPVerification struct {
	SessionToken string `json:"sessionToken"`
	Code         string `json:"code"`
}
