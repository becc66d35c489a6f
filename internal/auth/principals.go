package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JunoAX/schoolbag-go/internal/config"
)

var ErrBadCredentials = errors.New("invalid username or password")

// Principal is a configured API user with a stable in-process ID.
type Principal struct {
	ID       uuid.UUID
	Username string
	IsParent bool
}

// Authenticator verifies login credentials against the principals from
// the configuration file.
type Authenticator struct {
	principals map[string]principalEntry
}

type principalEntry struct {
	principal    Principal
	passwordHash string
}

// NewAuthenticator indexes the configured principals by lowercase
// username. Each principal gets a generated ID for token claims.
func NewAuthenticator(principals []config.Principal) *Authenticator {
	index := make(map[string]principalEntry, len(principals))
	for _, p := range principals {
		username := strings.ToLower(strings.TrimSpace(p.Username))
		index[username] = principalEntry{
			principal: Principal{
				ID:       uuid.New(),
				Username: username,
				IsParent: p.IsParent,
			},
			passwordHash: p.PasswordHash,
		}
	}
	return &Authenticator{principals: index}
}

// Authenticate checks the password against the stored bcrypt hash and
// returns the matching principal.
func (a *Authenticator) Authenticate(username, password string) (Principal, error) {
	entry, ok := a.principals[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return Principal{}, ErrBadCredentials
	}
	if entry.passwordHash == "" {
		return Principal{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entry.passwordHash), []byte(password)); err != nil {
		return Principal{}, ErrBadCredentials
	}
	return entry.principal, nil
}
