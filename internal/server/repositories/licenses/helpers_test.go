package licenses

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/keybind/internal/server/migrations"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	t0      = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
)

func sampleLicense(key string) *models.License {
	return &models.License{
		LicenseKey: key,
		UserName:   "Alice",
		UserEmail:  "alice@example.com",
		CreatedAt:  t0,
		ExpiresAt:  expires,
		IsActive:   true,
	}
}

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_time_format=sqlite", filepath.Join(t.TempDir(), "licenses.db"))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.SQLite)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "sqlite"))
	return db
}

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// fakeS3 is a single-object store with ETag preconditions.
type fakeS3 struct {
	mu      sync.Mutex
	body    []byte
	version int // 0 means the object does not exist

	getErr    error
	putErr    error
	beforePut func() // runs before each PutObject, outside the lock
	puts      int
	rejected  int
}

func (f *fakeS3) etag() string {
	return fmt.Sprintf("\"v%d\"", f.version)
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.version == 0 {
		return nil, &types.NoSuchKey{}
	}
	body := append([]byte(nil), f.body...)
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(body)),
		ETag: aws.String(f.etag()),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.beforePut != nil {
		f.beforePut()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	if f.putErr != nil {
		return nil, f.putErr
	}

	precondition := &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	if in.IfMatch != nil && (f.version == 0 || aws.ToString(in.IfMatch) != f.etag()) {
		f.rejected++
		return nil, precondition
	}
	if aws.ToString(in.IfNoneMatch) == "*" && f.version != 0 {
		f.rejected++
		return nil, precondition
	}

	f.body = raw
	f.version++
	return &s3.PutObjectOutput{ETag: aws.String(f.etag())}, nil
}

// bump simulates a write by another process that leaves the content intact.
func (f *fakeS3) bump() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version++
}
