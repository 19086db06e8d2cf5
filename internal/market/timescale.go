package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// LoadTimescale reads a tape hypertable through pgx.
func LoadTimescale(ctx context.Context, dsn string, opts SQLOptions) ([]Sample, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	if strings.TrimSpace(opts.Schema) == "" {
		opts.Schema = "public"
	}
	query, args, err := selectQuery(opts, func(n int) string { return fmt.Sprintf("$%d", n) })
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("timescale ping: %w", err)
	}
	series, err := readSeries(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("timescale tape %s.%s: %w", opts.Schema, opts.Table, err)
	}
	return series, nil
}
