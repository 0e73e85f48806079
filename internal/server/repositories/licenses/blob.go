package licenses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
)

// DefaultBlobMaxAttempts bounds the read-modify-write loop of BlobRepository.
const DefaultBlobMaxAttempts = 8

var errPreconditionFailed = errors.New("object changed concurrently")

// ObjectAPI is the part of *s3.Client used by BlobRepository.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// blobRecord is the per-key JSON shape of the licenses document.
type blobRecord struct {
	UserName  string     `json:"user_name"`
	UserEmail string     `json:"user_email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsActive  bool       `json:"is_active"`
	HWID      string     `json:"hwid,omitempty"`
	FirstUsed *time.Time `json:"first_used,omitempty"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

type blobDocument map[string]*blobRecord

// BlobRepository keeps every license in one JSON object, keyed by license
// key. Writes are conditional on the ETag that was read (If-Match), or on
// the object not existing yet (If-None-Match: *), and are retried from a
// fresh read when another writer got there first.
type BlobRepository struct {
	api         ObjectAPI
	bucket      string
	objectKey   string
	maxAttempts int
}

func NewBlobRepository(api ObjectAPI, bucket, objectKey string) *BlobRepository {
	return &BlobRepository{
		api:         api,
		bucket:      bucket,
		objectKey:   objectKey,
		maxAttempts: DefaultBlobMaxAttempts,
	}
}

func (r *BlobRepository) Create(ctx context.Context, l *models.License) error {
	return r.update(ctx, func(doc blobDocument) error {
		if _, ok := doc[l.LicenseKey]; ok {
			return common.ErrorAlreadyExists
		}
		doc[l.LicenseKey] = &blobRecord{
			UserName:  l.UserName,
			UserEmail: l.UserEmail,
			CreatedAt: l.CreatedAt.UTC(),
			ExpiresAt: l.ExpiresAt.UTC(),
			IsActive:  l.IsActive,
		}
		return nil
	})
}

func (r *BlobRepository) Get(ctx context.Context, key string) (*models.License, error) {
	doc, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := doc[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec.toModel(key), nil
}

func (r *BlobRepository) Exists(ctx context.Context, key string) (bool, error) {
	doc, _, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := doc[key]
	return ok, nil
}

func (r *BlobRepository) Touch(ctx context.Context, key, hwid string, now time.Time) error {
	return r.update(ctx, func(doc blobDocument) error {
		rec, ok := doc[key]
		if !ok || !rec.IsActive || (rec.HWID != "" && rec.HWID != hwid) {
			return ErrConflict
		}
		ts := now.UTC()
		rec.HWID = hwid
		if rec.FirstUsed == nil {
			rec.FirstUsed = &ts
		}
		if rec.LastUsed == nil || rec.LastUsed.Before(ts) {
			rec.LastUsed = &ts
		}
		return nil
	})
}

func (r *BlobRepository) Revoke(ctx context.Context, key string) error {
	return r.update(ctx, func(doc blobDocument) error {
		rec, ok := doc[key]
		if !ok {
			return common.ErrorNotFound
		}
		rec.IsActive = false
		return nil
	})
}

func (r *BlobRepository) Unbind(ctx context.Context, key string) (string, error) {
	var previous string
	err := r.update(ctx, func(doc blobDocument) error {
		rec, ok := doc[key]
		if !ok {
			return common.ErrorNotFound
		}
		previous = rec.HWID
		rec.HWID = ""
		return nil
	})
	return previous, err
}

// update applies fn to a fresh copy of the document and writes it back
// conditionally. An error from fn aborts without writing.
func (r *BlobRepository) update(ctx context.Context, fn func(doc blobDocument) error) error {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		doc, etag, err := r.load(ctx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		err = r.store(ctx, doc, etag)
		if errors.Is(err, errPreconditionFailed) {
			continue
		}
		return err
	}
	return fmt.Errorf("s3 update: %w after %d attempts", errPreconditionFailed, r.maxAttempts)
}

func (r *BlobRepository) load(ctx context.Context) (blobDocument, *string, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return blobDocument{}, nil, nil
		}
		return nil, nil, fmt.Errorf("s3 get: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("s3 read: %w", err)
	}

	doc := blobDocument{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, fmt.Errorf("malformed licenses document: %w", err)
		}
	}
	return doc, out.ETag, nil
}

func (r *BlobRepository) store(ctx context.Context, doc blobDocument, etag *string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode licenses document: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.objectKey),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	}
	if etag != nil {
		in.IfMatch = etag
	} else {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := r.api.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return errPreconditionFailed
		}
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}

func (rec *blobRecord) toModel(key string) *models.License {
	l := &models.License{
		LicenseKey: key,
		UserName:   rec.UserName,
		UserEmail:  rec.UserEmail,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
		IsActive:   rec.IsActive,
	}
	if rec.HWID != "" {
		hwid := rec.HWID
		l.BoundHWID = &hwid
	}
	if rec.FirstUsed != nil {
		v := *rec.FirstUsed
		l.FirstUsedAt = &v
	}
	if rec.LastUsed != nil {
		v := *rec.LastUsed
		l.LastUsedAt = &v
	}
	return l
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}
