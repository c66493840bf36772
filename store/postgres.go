package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// DefaultTable is the table PostgreSQL stores use unless WithTable is given.
const DefaultTable = "cocode_artifacts"

// tableIdentifier quotes a table name, optionally schema-qualified as
// "schema.table", for use in SQL text.
func tableIdentifier(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	for _, part := range parts {
		if part == "" {
			return "", fmt.Errorf("invalid table name %q", table)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// pgConn is the subset of *pgx.Conn the store uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// PostgresStore keeps artifacts as rows of a table.
type PostgresStore struct {
	conn   pgConn
	table  string
	logger zerolog.Logger
}

func openPostgres(ctx context.Context, connString string, o *options) (*PostgresStore, error) {
	table, err := tableIdentifier(o.table)
	if err != nil {
		return nil, err
	}
	conn := o.pgConn
	if conn == nil {
		c, err := pgx.Connect(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		conn = c
	}
	s := &PostgresStore{conn: conn, table: table, logger: o.logger}
	if o.createTable {
		if err := s.migrate(ctx); err != nil {
			if closeErr := conn.Close(ctx); closeErr != nil {
				err = multierror.Append(err, fmt.Errorf("close connection: %w", closeErr))
			}
			return nil, err
		}
	}
	return s, nil
}

// NewPostgresStore returns a store using an open connection. The table must
// already exist unless Migrate is called.
func NewPostgresStore(conn *pgx.Conn, table string, logger zerolog.Logger) (*PostgresStore, error) {
	quoted, err := tableIdentifier(table)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{conn: conn, table: quoted, logger: logger}, nil
}

// Migrate creates the store's table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	payload BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, code *bytecode.Code) (string, error) {
	data, err := encode(code)
	if err != nil {
		return "", err
	}
	id := code.ID()
	sql := fmt.Sprintf(`INSERT INTO %s (id, name, payload) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`, s.table)
	tag, err := s.conn.Exec(ctx, sql, id, code.Name(), data)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	s.logger.Debug().
		Str("store", "postgres").
		Str("id", id).
		Int("bytes", len(data)).
		Int64("rows", tag.RowsAffected()).
		Msg("put artifact")
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*bytecode.Code, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var data []byte
	sql := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, s.table)
	if err := s.conn.QueryRow(ctx, sql, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	s.logger.Debug().Str("store", "postgres").Str("id", id).Int("bytes", len(data)).Msg("get artifact")
	return decode(id, data)
}

func (s *PostgresStore) Close() error {
	return s.conn.Close(context.Background())
}
