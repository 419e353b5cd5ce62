// Package postgres stores resort records in one Postgres table per region.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/skiresort-ranker/internal/region"
	"github.com/JakeFAU/skiresort-ranker/internal/resort"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

var columns = []string{"name", "highest", "lowest", "diff"}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Session is the subset of a pgx pool the store needs. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type Session interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// ResortStore implements storage.Sink and storage.Store.
type ResortStore struct {
	session Session
}

var (
	_ storage.Sink  = (*ResortStore)(nil)
	_ storage.Store = (*ResortStore)(nil)
)

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*ResortStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ResortStore{session: pool}, nil
}

// NewWithSession wraps an existing session.
func NewWithSession(session Session) (*ResortStore, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	return &ResortStore{session: session}, nil
}

// Close releases the session.
func (s *ResortStore) Close() {
	if s == nil || s.session == nil {
		return
	}
	s.session.Close()
}

// Ping checks connectivity.
func (s *ResortStore) Ping(ctx context.Context) error {
	if err := s.session.Ping(ctx); err != nil {
		return &storage.PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

// ReplaceRegion drops and recreates the table for key and copies records into
// it, all in one transaction. Heights are rounded to whole meters.
func (s *ResortStore) ReplaceRegion(ctx context.Context, key string, records []resort.Record) error {
	table, err := tableFor(key)
	if err != nil {
		return &storage.PersistenceError{Op: "replace", Key: key, Err: err}
	}
	if err := s.replace(ctx, table, records); err != nil {
		return &storage.PersistenceError{Op: "replace", Key: key, Err: err}
	}
	return nil
}

func (s *ResortStore) replace(ctx context.Context, table pgx.Identifier, records []resort.Record) (err error) {
	tx, err := s.session.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	name := table.Sanitize()
	if _, err = tx.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (
	rowid BIGSERIAL PRIMARY KEY,
	name TEXT,
	highest INTEGER,
	lowest INTEGER,
	diff INTEGER
)`, name)
	if _, err = tx.Exec(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if len(records) > 0 {
		rows := make([][]any, 0, len(records))
		for _, r := range records {
			rows = append(rows, []any{r.Name, meters(r.Highest), meters(r.Lowest), meters(r.Drop)})
		}
		n, copyErr := tx.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
		if copyErr != nil {
			err = fmt.Errorf("copy rows: %w", copyErr)
			return err
		}
		if n != int64(len(rows)) {
			err = fmt.Errorf("copy rows: wrote %d of %d", n, len(rows))
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query reads up to sort.Limit records ordered by sort. The column and
// direction come from the storage whitelist and are never caller text.
func (s *ResortStore) Query(ctx context.Context, key string, sort storage.Sort) ([]resort.Record, error) {
	table, err := tableFor(key)
	if err != nil {
		return nil, &storage.PersistenceError{Op: "query", Key: key, Err: err}
	}
	sort = storage.NewSort(string(sort.Column), string(sort.Direction), sort.Limit)
	sql := fmt.Sprintf("SELECT name, highest, lowest, diff FROM %s ORDER BY %s %s, name ASC LIMIT $1",
		table.Sanitize(), sort.Column, sort.Direction)

	rows, err := s.session.Query(ctx, sql, sort.Limit)
	if err != nil {
		return nil, &storage.PersistenceError{Op: "query", Key: key, Err: err}
	}
	defer rows.Close()

	var out []resort.Record
	for rows.Next() {
		var (
			name                  string
			highest, lowest, diff int64
		)
		if err := rows.Scan(&name, &highest, &lowest, &diff); err != nil {
			return nil, &storage.PersistenceError{Op: "scan", Key: key, Err: err}
		}
		out = append(out, resort.Record{
			Name:    name,
			Highest: float64(highest),
			Lowest:  float64(lowest),
			Drop:    float64(diff),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.PersistenceError{Op: "query", Key: key, Err: err}
	}
	return out, nil
}

func tableFor(key string) (pgx.Identifier, error) {
	name := region.TableName(key)
	if name == "" {
		return nil, errors.New("table key is required")
	}
	return pgx.Identifier{name}, nil
}

func meters(v float64) int64 {
	return int64(math.Round(v))
}
