package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/rs/zerolog"
)

const contentType = "application/cbor"

// s3API is the subset of *s3.Client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps artifacts as objects under a key prefix in a bucket.
type S3Store struct {
	client s3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Store returns a store using an existing client.
func NewS3Store(client *s3.Client, bucket, prefix string, logger zerolog.Logger) *S3Store {
	return newS3Store(client, bucket, prefix, logger)
}

func newS3Store(client s3API, bucket, prefix string, logger zerolog.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func openS3(ctx context.Context, bucket, prefix string, o *options) (*S3Store, error) {
	if o.s3Client != nil {
		return newS3Store(o.s3Client, bucket, prefix, o.logger), nil
	}
	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.accessKey != "" {
		provider := credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(provider))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.endpoint != "" {
			opts.EndpointResolver = s3.EndpointResolverFromURL(o.endpoint)
			opts.UsePathStyle = true
		}
	})
	o.logger.Debug().Str("bucket", bucket).Str("prefix", prefix).Str("region", cfg.Region).Msg("opened s3 store")
	return newS3Store(client, bucket, prefix, o.logger), nil
}

func (s *S3Store) key(id string) string {
	return path.Join(s.prefix, id+".cbor")
}

func (s *S3Store) Put(ctx context.Context, code *bytecode.Code) (string, error) {
	data, err := encode(code)
	if err != nil {
		return "", err
	}
	id := code.ID()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"name": code.Name()},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	s.logger.Debug().Str("store", "s3").Str("bucket", s.bucket).Str("id", id).Int("bytes", len(data)).Msg("put artifact")
	return id, nil
}

func (s *S3Store) Get(ctx context.Context, id string) (*bytecode.Code, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	s.logger.Debug().Str("store", "s3").Str("bucket", s.bucket).Str("id", id).Int("bytes", len(data)).Msg("get artifact")
	return decode(id, data)
}

func (s *S3Store) Close() error {
	return nil
}
