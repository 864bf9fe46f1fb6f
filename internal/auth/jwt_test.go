package auth

import (
	"testing"

	"crm-backend/internal/config"
	"crm-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "crm-test"
	return cfg
}

func TestGenerateAndValidateToken(t *testing.T) {
	jm := NewJWTManager(testConfig())
	user := &models.User{ID: 42, CompanyID: 7, Email: "a@b.com", Role: "admin"}

	token, err := jm.GenerateToken(user)
	require.NoError(t, err)

	claims, err := jm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, 7, claims.CompanyID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "crm-test", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	jm := NewJWTManager(testConfig())
	token, err := jm.GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	other := &config.Config{}
	other.JWT.Secret = "different"
	other.JWT.ExpirationHours = 1
	_, err = NewJWTManager(other).ValidateToken(token)
	assert.Error(t, err)
}

func TestTempTokenIsNotASessionToken(t *testing.T) {
	jm := NewJWTManager(testConfig())
	user := &models.User{ID: 42, Email: "a@b.com"}

	tempToken, err := jm.GenerateTempToken(user)
	require.NoError(t, err)

	claims, err := jm.ValidateTempToken(tempToken)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "2fa_pending", claims.Type)

	// A full session token must not pass temp validation
	sessionToken, err := jm.GenerateToken(user)
	require.NoError(t, err)
	_, err = jm.ValidateTempToken(sessionToken)
	assert.Error(t, err)
}
