package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
)

// Field names used as FieldErrors keys.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldCode            = "code"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Err returns nil when there are no field errors, otherwise an error
// wrapping common.ErrorValidation that lists every field.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(parts, "; "))
}

// ValidateCredentials checks the first login step.
func ValidateCredentials(email, password string) FieldErrors {
	fe := FieldErrors{}

	switch {
	case strings.TrimSpace(email) == "":
		fe[FieldEmail] = "Email is required"
	case !ValidateEmail(strings.TrimSpace(email)):
		fe[FieldEmail] = "Enter a valid email address"
	}

	if password == "" {
		fe[FieldPassword] = "Password is required"
	}

	return fe
}

// ValidateRegistration checks every registration field plus the password
// confirmation.
func ValidateRegistration(data models.RegisterData, confirmPassword string) FieldErrors {
	fe := FieldErrors{}

	if strings.TrimSpace(data.Name) == "" {
		fe[FieldName] = "Name is required"
	} else if r := ValidateName(data.Name); !r.Valid {
		fe[FieldName] = r.Message
	}

	switch {
	case strings.TrimSpace(data.Email) == "":
		fe[FieldEmail] = "Email is required"
	case !ValidateEmail(strings.TrimSpace(data.Email)):
		fe[FieldEmail] = "Enter a valid email address"
	}

	switch {
	case strings.TrimSpace(data.Phone) == "":
		fe[FieldPhone] = "Phone is required"
	case !ValidatePhone(data.Phone):
		fe[FieldPhone] = "Enter a valid phone number"
	}

	if data.Password == "" {
		fe[FieldPassword] = "Password is required"
	} else if r := ValidatePassword(data.Password); !r.Valid {
		fe[FieldPassword] = r.Message
	}

	if data.Password != confirmPassword {
		fe[FieldConfirmPassword] = "Passwords do not match"
	}

	return fe
}

// NormalizeEmail trims and lower-cases an email before it is sent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
