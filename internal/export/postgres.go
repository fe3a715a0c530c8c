package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// PostgresConfig describes where a cleaned table is loaded.
type PostgresConfig struct {
	DSN    string
	Schema string // used when Table is not schema-qualified
	Table  string // "name" or "schema.name"
	// Replace drops and recreates the target table before loading.
	Replace bool
}

// PostgresSink loads tables into Postgres with COPY.
type PostgresSink struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresSink connects to cfg.DSN and returns the sink with a close function.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, errors.New("postgres dsn is empty (set postgres_dsn)")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, errors.New("postgres table name is empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &PostgresSink{pool: pool, cfg: cfg}, pool.Close, nil
}

// Load creates the target table if needed and copies every row of t into it.
// It returns the number of rows copied.
func (s *PostgresSink) Load(ctx context.Context, t *table.Table) (int64, error) {
	ident := TableIdentifier(s.cfg.Schema, s.cfg.Table)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.cfg.Replace {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
			return 0, fmt.Errorf("drop table: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(ident, t)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}
	n, err := tx.CopyFrom(ctx, ident, t.Names(), pgx.CopyFromRows(CopyRows(t)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into %s: %s (%s)", ident.Sanitize(), pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// TableIdentifier splits a possibly schema-qualified name. An unqualified name
// is placed in schema; an empty schema leaves it unqualified.
func TableIdentifier(schema, name string) pgx.Identifier {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "."); i >= 0 {
		return pgx.Identifier{name[:i], name[i+1:]}
	}
	if schema = strings.TrimSpace(schema); schema != "" {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{name}
}

// PostgresType maps a column kind to its Postgres column type.
func PostgresType(k table.Kind) string {
	switch k {
	case table.KindNumeric:
		return "DOUBLE PRECISION"
	case table.KindTemporal:
		return "TIMESTAMPTZ"
	case table.KindFlag:
		return "BOOLEAN NOT NULL"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for t.
func CreateTableSQL(ident pgx.Identifier, t *table.Table) string {
	cols := t.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + PostgresType(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", ident.Sanitize(), strings.Join(defs, ",\n  "))
}

// CopyRows converts t to COPY rows; missing cells become NULL.
func CopyRows(t *table.Table) [][]any {
	cols := t.Columns()
	rows := make([][]any, t.Rows())
	for i := range rows {
		row := make([]any, len(cols))
		for j, c := range cols {
			if c.IsMissing(i) {
				continue
			}
			switch c.Kind {
			case table.KindNumeric:
				row[j] = c.Nums[i]
			case table.KindTemporal:
				row[j] = c.Times[i]
			case table.KindFlag:
				row[j] = c.Flags[i]
			default:
				row[j] = c.Texts[i]
			}
		}
		rows[i] = row
	}
	return rows
}
