package validation

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	fe := ValidateCredentials("", "")
	assert.Equal(t, "Email is required", fe[FieldEmail])
	assert.Equal(t, "Password is required", fe[FieldPassword])

	fe = ValidateCredentials("not-an-email", "x")
	assert.Equal(t, "Enter a valid email address", fe[FieldEmail])
	assert.NotContains(t, fe, FieldPassword)

	assert.Empty(t, ValidateCredentials(" ana@example.com ", "whatever"))
}

func TestValidateRegistration(t *testing.T) {
	good := models.RegisterData{Name: "Ana María", Email: "ana@example.com", Phone: "+57 300 123 4567", Password: "Secret123"}
	require.Empty(t, ValidateRegistration(good, "Secret123"))

	fe := ValidateRegistration(models.RegisterData{Name: "A", Email: "bad", Phone: "12", Password: "abc"}, "abd")
	assert.Contains(t, fe[FieldName], "at least 2")
	assert.Equal(t, "Enter a valid email address", fe[FieldEmail])
	assert.Equal(t, "Enter a valid phone number", fe[FieldPhone])
	assert.Contains(t, fe[FieldPassword], "at least 8")
	assert.Equal(t, "Passwords do not match", fe[FieldConfirmPassword])

	fe = ValidateRegistration(models.RegisterData{}, "")
	assert.Equal(t, "Name is required", fe[FieldName])
	assert.Equal(t, "Email is required", fe[FieldEmail])
	assert.Equal(t, "Phone is required", fe[FieldPhone])
	assert.Equal(t, "Password is required", fe[FieldPassword])
	assert.NotContains(t, fe, FieldConfirmPassword)
}

func TestFieldErrors_Err(t *testing.T) {
	require.NoError(t, FieldErrors{}.Err())

	err := FieldErrors{FieldPhone: "bad phone", FieldEmail: "bad email"}.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorValidation))
	assert.Equal(t, "validation error: email: bad email; phone: bad phone", err.Error())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
