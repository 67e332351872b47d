package keys

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/keyvault/internal/common"
)

const (
	selectQ = `(?s)^SELECT\s+user_id,\s*public_key,\s*private_key_encrypted,\s*master_key_id,\s*algorithm,\s*created_at\s+FROM\s+key_pairs\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	insertQ = `(?s)^INSERT\s+INTO\s+key_pairs\s*\(.+\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*ON\s+CONFLICT\s*\(user_id\)\s*DO\s+NOTHING\s*$`
)

var keyPairColumns = []string{"user_id", "public_key", "private_key_encrypted", "master_key_id", "algorithm", "created_at"}

func newPostgresRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_Get(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)
	rec := sampleRecord("u-1", 0x01)

	mock.ExpectQuery(selectQ).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(keyPairColumns).
			AddRow(rec.UserID, rec.PublicKey, rec.PrivateKeyEncrypted, rec.MasterKeyID, rec.Algorithm, rec.CreatedAt))

	got, err := repo.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Errors(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("u-1").WillReturnError(sql.ErrNoRows)
	_, err := repo.Get(context.Background(), "u-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(selectQ).WithArgs("u-2").WillReturnError(errors.New("conn reset"))
	_, err = repo.Get(context.Background(), "u-2")
	assert.ErrorContains(t, err, "db error")
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_PutIfAbsent_Inserted(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)
	rec := sampleRecord("u-1", 0x01)

	mock.ExpectExec(insertQ).
		WithArgs(rec.UserID, rec.PublicKey, rec.PrivateKeyEncrypted, rec.MasterKeyID, rec.Algorithm, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	stored, inserted, err := repo.PutIfAbsent(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Same(t, rec, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutIfAbsent_ConflictReturnsExisting(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)
	winner := sampleRecord("u-1", 0x01)
	loser := sampleRecord("u-1", 0x02)

	mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectQ).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(keyPairColumns).
			AddRow(winner.UserID, winner.PublicKey, winner.PrivateKeyEncrypted, winner.MasterKeyID, winner.Algorithm, winner.CreatedAt))

	stored, inserted, err := repo.PutIfAbsent(context.Background(), loser)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, winner.PublicKey, stored.PublicKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutIfAbsent_ExecError(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnError(errors.New("boom"))

	_, _, err := repo.PutIfAbsent(context.Background(), sampleRecord("u-1", 0x01))
	assert.ErrorContains(t, err, "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}
