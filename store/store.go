// Package store persists assembled artifacts keyed by their content ID.
//
// Artifacts are stored in their canonical CBOR encoding, so the bytes written
// for a given artifact are the same on every backend. A Get verifies the
// decoded artifact against the requested ID.
//
// Three backends are provided: a directory on the local filesystem, an S3
// bucket and a PostgreSQL table. Open selects one from a URL:
//
//	./artifacts                      FileStore
//	file:///var/lib/cocode           FileStore
//	s3://bucket/prefix               S3Store
//	postgres://user@host/db          PostgresStore
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Store saves and loads artifacts.
type Store interface {
	// Put saves the artifact and returns its ID. Saving an artifact that is
	// already present is not an error.
	Put(ctx context.Context, code *bytecode.Code) (string, error)

	// Get loads the artifact with the given ID. A missing artifact returns an
	// error matching ErrNotFound.
	Get(ctx context.Context, id string) (*bytecode.Code, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is matched by the errors returned for missing artifacts.
var ErrNotFound = errors.New("artifact not found")

// NotFoundError reports a Get for an ID the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ToFormatted implements errors.Formattable.
func (e *NotFoundError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E3003,
		Kind:     "artifact error",
		Message:  e.Error(),
		Location: errors.NoLocation,
	}
}

// Option configures a store opened with Open.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	region      string
	endpoint    string
	accessKey   string
	secretKey   string
	table       string
	s3Client    s3API
	pgConn      pgConn
	createTable bool
}

func collectOptions(opts ...Option) *options {
	o := &options{
		logger:      zerolog.Nop(),
		table:       DefaultTable,
		createTable: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger sets the logger stores report puts and gets to.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegion sets the AWS region of an S3 store.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint points an S3 store at an S3-compatible service, such as MinIO.
// Path-style addressing is used when an endpoint is set.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithCredentials sets static S3 credentials instead of the default AWS
// credential chain.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithTable sets the table a PostgreSQL store uses.
func WithTable(table string) Option {
	return func(o *options) {
		o.table = table
	}
}

// WithoutMigration skips creating the PostgreSQL table on open.
func WithoutMigration() Option {
	return func(o *options) {
		o.createTable = false
	}
}

// Open returns the store addressed by location.
func Open(ctx context.Context, location string, opts ...Option) (Store, error) {
	o := collectOptions(opts...)
	if location == "" {
		return nil, fmt.Errorf("empty store location")
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return NewFileStore(location, o.logger)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		return NewFileStore(path, o.logger)
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("s3 location %q has no bucket", location)
		}
		return openS3(ctx, u.Host, strings.Trim(u.Path, "/"), o)
	case "postgres", "postgresql":
		return openPostgres(ctx, location, o)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// ValidateID returns an error unless id is a canonical artifact ID.
func ValidateID(id string) error {
	u, err := uuid.FromString(id)
	if err != nil || u.String() != id {
		return fmt.Errorf("invalid artifact id %q", id)
	}
	return nil
}

func encode(code *bytecode.Code) ([]byte, error) {
	data, err := bytecode.MarshalCBOR(code)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return data, nil
}

// decode decodes a stored payload and checks that it holds the artifact id.
func decode(id string, data []byte) (*bytecode.Code, error) {
	code, err := bytecode.UnmarshalCBOR(data)
	if err != nil {
		return nil, err
	}
	if code.ID() != id {
		return nil, &bytecode.CorruptError{Reason: fmt.Sprintf("stored under %s but has id %s", id, code.ID())}
	}
	return code, nil
}
