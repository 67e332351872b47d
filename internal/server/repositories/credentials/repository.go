// Package credentials stores user identity records (id, email, password
// hash). Lookups are by normalised email.
package credentials

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type Repository interface {
	// GetByEmail returns common.ErrorNotFound for an unknown email.
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	// Create returns common.ErrorAlreadyExists if the user id or email is taken.
	Create(ctx context.Context, c *models.Credential) error
}

// NormalizeEmail is the canonical form used as the lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
