package dataset

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "entrants"

// PostgresConfig controls the pool used by the SQL mirror.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type beginCloser interface {
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// PostgresSink mirrors the dataset into one row per entrant. Each write
// replaces the rows of every meet it contains in a single transaction.
type PostgresSink struct {
	pool  beginCloser
	table string
}

// NewPostgresSink connects a pool described by cfg.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dataset.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sink, err := NewPostgresSinkWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// NewPostgresSinkWithPool builds a sink on an existing pool.
func NewPostgresSinkWithPool(pool beginCloser, table string) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSink{pool: pool, table: table}, nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Write implements Sink.
func (s *PostgresSink) Write(ctx context.Context, e entries.Entries) error {
	if e == nil {
		return ErrNoEntries
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := s.replace(ctx, tx, e); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresSink) replace(ctx context.Context, tx pgx.Tx, e entries.Entries) error {
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE meet = $1`, s.table)
	insertQuery := fmt.Sprintf(`
INSERT INTO %s (
	meet,
	event,
	event_date,
	position,
	athlete_id,
	first_name,
	last_name,
	nat,
	pb,
	sb,
	team
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.table)

	for _, meet := range e.SortedMeets() {
		if _, err := tx.Exec(ctx, deleteQuery, string(meet)); err != nil {
			return fmt.Errorf("delete %s: %w", meet, err)
		}
		for _, ev := range e.SortedEvents(meet) {
			entry := e.Get(meet, ev)
			if entry == nil {
				continue
			}
			for i, ent := range entry.Entrants {
				args := []any{
					string(meet),
					string(ev),
					entry.Date,
					i + 1,
					ent.ID,
					ent.FirstName,
					ent.LastName,
					nullable(ent.Nat),
					nullable(ent.PB),
					nullable(ent.SB),
					nullable(ent.Team),
				}
				if _, err := tx.Exec(ctx, insertQuery, args...); err != nil {
					return fmt.Errorf("insert %s %s #%d: %w", meet, ev, i+1, err)
				}
			}
		}
	}
	return nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
