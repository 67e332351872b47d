package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/dbx"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.KeyPairRecord, error) {
	query :=
		`SELECT user_id, public_key, private_key_encrypted, master_key_id, algorithm, created_at
		 FROM key_pairs
		 WHERE user_id = $1
		 `

	rec := &models.KeyPairRecord{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.PublicKey, &rec.PrivateKeyEncrypted, &rec.MasterKeyID, &rec.Algorithm, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) PutIfAbsent(ctx context.Context, rec *models.KeyPairRecord) (*models.KeyPairRecord, bool, error) {
	query :=
		`INSERT INTO key_pairs (user_id, public_key, private_key_encrypted, master_key_id, algorithm, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.PublicKey, rec.PrivateKeyEncrypted, rec.MasterKeyID, rec.Algorithm, rec.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		return rec, true, nil
	}

	existing, err := r.Get(ctx, rec.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
