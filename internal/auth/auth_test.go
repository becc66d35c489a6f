package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JunoAX/schoolbag-go/internal/config"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "schoolbag-go")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "mum", true)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "mum", claims.Username)
	assert.True(t, claims.IsParent)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", "schoolbag-go").GenerateToken(uuid.New(), "mum", true)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", "schoolbag-go").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", "schoolbag-go")
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAuthenticator([]config.Principal{
		{Username: "Mum", PasswordHash: string(hash), IsParent: true},
		{Username: "kid"}, // no password hash, login disabled
	})

	principal, err := a.Authenticate("mum", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "mum", principal.Username, "usernames normalize to lowercase")
	assert.True(t, principal.IsParent)
	assert.NotEqual(t, uuid.Nil, principal.ID)

	_, err = a.Authenticate("mum", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Authenticate("kid", "")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Authenticate("nobody", "hunter2")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
