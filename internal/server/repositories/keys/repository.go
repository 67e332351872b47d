// Package keys is the vault's backing store: at most one KeyPairRecord per
// user id. Every backend implements PutIfAbsent as a single atomic
// insert-if-absent, so concurrent writers (in one process or many) converge
// on exactly one stored record.
package keys

import (
	"context"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the user has no record.
	Get(ctx context.Context, userID string) (*models.KeyPairRecord, error)
	// PutIfAbsent stores rec unless a record for rec.UserID already exists.
	// It returns the record that is stored after the call and whether rec
	// was the one inserted.
	PutIfAbsent(ctx context.Context, rec *models.KeyPairRecord) (*models.KeyPairRecord, bool, error)
}
