package keys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// S3API is the subset of *s3.Client the repository needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Repository keeps one object per user at <prefix>/<user id>.cbor.
// Conditional writes (If-None-Match: *) make PutIfAbsent atomic.
type S3Repository struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Repository(client S3API, bucket, prefix string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

func (r *S3Repository) objectKey(userID string) string {
	return path.Join(r.prefix, userID+".cbor")
}

func (r *S3Repository) Get(ctx context.Context, userID string) (*models.KeyPairRecord, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(userID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	return decodeRecord(b)
}

func (r *S3Repository) PutIfAbsent(ctx context.Context, rec *models.KeyPairRecord) (*models.KeyPairRecord, bool, error) {
	b, err := encodeRecord(rec)
	if err != nil {
		return nil, false, err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.objectKey(rec.UserID)),
		Body:          bytes.NewReader(b),
		ContentLength: aws.Int64(int64(len(b))),
		ContentType:   aws.String("application/cbor"),
		IfNoneMatch:   aws.String("*"),
	})
	if err == nil {
		return rec, true, nil
	}
	if !isConditionFailed(err) {
		return nil, false, fmt.Errorf("s3 error: %w", err)
	}

	existing, err := r.Get(ctx, rec.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func isConditionFailed(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
