package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
)

// store is an opened license store together with its attempt journal.
type store struct {
	licenses licenses.Repository
	attempts attempts.Repository
	close    func() error
}

// openStore connects to the configured backend. SQL backends journal
// attempts in the database, the others in the log.
func (app *App) openStore(ctx context.Context) (*store, error) {
	c := app.config

	switch c.StoreBackend {
	case config.StorePostgres:
		return app.openSQL(ctx, repomanager.DialectPostgres)
	case config.StoreSQLite:
		return app.openSQL(ctx, repomanager.DialectSQLite)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
		return &store{
			licenses: licenses.NewRedisRepository(client),
			attempts: attempts.NewLogRepository(app.logger, attempts.DefaultLogCapacity),
			close:    client.Close,
		}, nil
	case config.StoreS3:
		client, err := newS3Client(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("s3 client error: %w", err)
		}
		return &store{
			licenses: licenses.NewBlobRepository(client, c.S3Bucket, c.S3ObjectKey),
			attempts: attempts.NewLogRepository(app.logger, attempts.DefaultLogCapacity),
			close:    func() error { return nil },
		}, nil
	case config.StoreMemory:
		app.logger.Warn(ctx, "using in-memory store, licenses are lost on restart")
		return &store{
			licenses: licenses.NewMemoryRepository(),
			attempts: attempts.NewLogRepository(app.logger, attempts.DefaultLogCapacity),
			close:    func() error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
}

func (app *App) openSQL(ctx context.Context, dialect repomanager.Dialect) (*store, error) {
	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == repomanager.DialectSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &store{
		licenses: rm.Licenses(db),
		attempts: rm.Attempts(db),
		close:    db.Close,
	}, nil
}

func newS3Client(ctx context.Context, c *config.Config) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}
