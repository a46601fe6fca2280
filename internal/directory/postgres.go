package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the contacts table. Execute it via
// [PostgresDirectory.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS contacts (
    email      TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_contacts_name_lower ON contacts (lower(name));
`

// DB is the database interface used by [PostgresDirectory]. Both
// *pgxpool.Pool and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresDirectory is a [Directory] backed by a PostgreSQL contacts table,
// typically synced from the organisation's address book by an external job.
type PostgresDirectory struct {
	db DB
}

// Compile-time interface check.
var _ Directory = (*PostgresDirectory)(nil)

// NewPostgresDirectory creates a directory over the given connection or
// pool. The caller is responsible for calling [PostgresDirectory.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresDirectory(db DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (d *PostgresDirectory) Migrate(ctx context.Context) error {
	_, err := d.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("directory: migrate: %w", err)
	}
	return nil
}

// Lookup implements [Directory.Lookup]. Email-shaped queries match the email
// column exactly; anything else matches the name case-insensitively.
func (d *PostgresDirectory) Lookup(ctx context.Context, query string) ([]Contact, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	var (
		rows pgx.Rows
		err  error
	)
	if strings.Contains(q, "@") {
		const sql = `SELECT name, email FROM contacts WHERE lower(email) = lower($1)`
		rows, err = d.db.Query(ctx, sql, q)
	} else {
		const sql = `SELECT name, email FROM contacts WHERE lower(name) = lower($1) ORDER BY email`
		rows, err = d.db.Query(ctx, sql, q)
	}
	if err != nil {
		return nil, fmt.Errorf("directory: lookup %q: %w", q, err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("directory: lookup scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: lookup %q: %w", q, err)
	}
	return out, nil
}
