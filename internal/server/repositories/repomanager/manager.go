// Package repomanager builds the configured credential and key-pair stores,
// owns their connections and runs the postgres schema migrations (goose).
package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/keyvault/internal/dbx"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/migrations"
	credrepo "github.com/dmitrijs2005/keyvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
)

// Seams for tests.
var (
	openPostgres = dbx.OpenPostgres

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}

	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig
)

// Manager vends the stores selected by the configuration.
type Manager struct {
	db    *sql.DB
	redis *redis.Client

	credentials credrepo.Repository
	keys        keys.Repository
}

// New connects whatever backends cfg selects. On error every connection
// opened so far is closed.
func New(ctx context.Context, cfg *config.Config) (_ *Manager, err error) {
	m := &Manager{}
	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	if cfg.UsesPostgres() {
		m.db, err = openPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	switch cfg.CredentialStore {
	case config.StoreMemory:
		m.credentials = credrepo.NewMemoryRepository()
	case config.StorePostgres:
		m.credentials = credrepo.NewPostgresRepository(m.db)
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}

	switch cfg.VaultStore {
	case config.StoreMemory:
		m.keys = keys.NewMemoryRepository()
	case config.StorePostgres:
		m.keys = keys.NewPostgresRepository(m.db)
	case config.StoreRedis:
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("redis url: %w", perr)
		}
		m.redis = redis.NewClient(opts)
		if perr := m.redis.Ping(ctx).Err(); perr != nil {
			return nil, fmt.Errorf("redis ping: %w", perr)
		}
		m.keys = keys.NewRedisRepository(m.redis)
	case config.StoreS3:
		client, serr := newS3Client(ctx, cfg)
		if serr != nil {
			return nil, serr
		}
		m.keys = keys.NewS3Repository(client, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown vault store %q", cfg.VaultStore)
	}

	return m, nil
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}), nil
}

func (m *Manager) Credentials() credrepo.Repository {
	return m.credentials
}

func (m *Manager) Keys() keys.Repository {
	return m.keys
}

// DB is nil unless a postgres store is configured.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// RunMigrations applies the embedded goose migrations. It is a no-op
// without a database.
func (m *Manager) RunMigrations(ctx context.Context) error {
	if m.db == nil {
		return nil
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// SeedDemoUsers creates the demo accounts that are missing. With postgres
// the inserts share one transaction.
func (m *Manager) SeedDemoUsers(ctx context.Context, users []credrepo.DemoUser, hash func(string) (string, error)) (int, error) {
	if _, ok := m.credentials.(*credrepo.PostgresRepository); !ok || m.db == nil {
		return credrepo.Seed(ctx, m.credentials, users, hash)
	}

	var created int
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = credrepo.Seed(ctx, credrepo.NewPostgresRepository(tx), users, hash)
		return err
	})
	return created, err
}

// Close releases every connection the manager opened.
func (m *Manager) Close() error {
	var errs []error
	if m.redis != nil {
		errs = append(errs, m.redis.Close())
	}
	if m.db != nil {
		errs = append(errs, m.db.Close())
	}
	return errors.Join(errs...)
}
