package auth

import (
	"strings"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
)

// UserRegistry resolves operators by username.
type UserRegistry interface {
	Lookup(username string) (models.User, bool)
}

// StaticRegistry is a fixed set of operators, keyed by lower-cased username.
type StaticRegistry map[string]models.User

// NewStaticRegistry builds a registry from the given users. Users without a
// username are skipped.
func NewStaticRegistry(users ...models.User) StaticRegistry {
	registry := make(StaticRegistry, len(users))
	for _, user := range users {
		key := normalizeUsername(user.Username)
		if key == "" {
			continue
		}
		registry[key] = user
	}
	return registry
}

// Lookup implements UserRegistry.
func (r StaticRegistry) Lookup(username string) (models.User, bool) {
	user, ok := r[normalizeUsername(username)]
	return user, ok
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
