package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// API defines the subset of S3 client methods used by this package.
// This enables mocking in tests.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Adapter implements adapter.Remote for objects under a bucket prefix
type Adapter struct {
	client API
	bucket string
	prefix string
}

// New loads the default AWS credential chain and creates an adapter for cfg
func New(ctx context.Context, cfg domain.S3Config) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", domain.ErrConfigInvalid)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an adapter over an existing client
func NewWithClient(client API, bucket, prefix string) *Adapter {
	return &Adapter{
		client: client,
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}
}

// normalizePrefix strips leading slashes and ensures a trailing one
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// objectKey maps a relative path to its key, rejecting escapes
func (a *Adapter) objectKey(relPath string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if clean == "." || clean == "" {
		return "", domain.ErrNotFile
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", domain.ErrPermissionDenied
	}
	return a.prefix + clean, nil
}

// Stat returns object metadata from HeadObject. A key with no object but
// with children under "key/" is reported as a directory.
func (a *Adapter) Stat(ctx context.Context, relPath string) (domain.RemoteObject, error) {
	key, err := a.objectKey(relPath)
	if err != nil {
		return domain.RemoteObject{}, err
	}

	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		obj := domain.RemoteObject{
			Path: relPath,
			Size: aws.ToInt64(out.ContentLength),
			MD5:  etagMD5(aws.ToString(out.ETag)),
		}
		if out.LastModified != nil {
			obj.ModTime = *out.LastModified
		}
		return obj, nil
	}

	mapped := mapError(err)
	if !errors.Is(mapped, domain.ErrNotFound) {
		return domain.RemoteObject{}, mapped
	}

	list, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return domain.RemoteObject{}, mapError(err)
	}
	if aws.ToInt32(list.KeyCount) == 0 && len(list.Contents) == 0 {
		return domain.RemoteObject{}, domain.ErrNotFound
	}
	return domain.RemoteObject{Path: relPath, IsDir: true}, nil
}

// Available reports whether the bucket answers HeadBucket
func (a *Adapter) Available(ctx context.Context) bool {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err == nil
}

// Close releases any resources
func (a *Adapter) Close() error {
	return nil
}

// etagMD5 returns the hex MD5 carried by a single-part upload ETag.
// Multipart ETags ("<hash>-<parts>") are not content hashes.
func etagMD5(etag string) string {
	etag = strings.Trim(etag, `"`)
	if etag == "" || strings.Contains(etag, "-") {
		return ""
	}
	return strings.ToLower(etag)
}

// mapError converts SDK errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return domain.ErrNotFound
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusForbidden, http.StatusUnauthorized:
			return domain.ErrPermissionDenied
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return domain.ErrNotFound
		case "AccessDenied", "Forbidden":
			return domain.ErrPermissionDenied
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	return err
}
