package market

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LoadSQLite reads a tape table from a SQLite file. Time columns may hold ISO-8601
// text or unix epochs.
func LoadSQLite(ctx context.Context, path string, opts SQLOptions) ([]Sample, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	opts.Schema = ""
	query, args, err := selectQuery(opts, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}
	series, err := readSeries(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite tape %s: %w", path, err)
	}
	return series, nil
}
