package market

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLOptions names the tape table. From/To bound the query when non-zero (To is
// exclusive). Only the timescale loader pushes them down; sqlite keeps
// timestamps as text and is windowed after load.
type SQLOptions struct {
	Schema      string
	Table       string
	TimeColumn  string
	PriceColumn string
	From        time.Time
	To          time.Time
}

func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// selectQuery builds the tape query using the driver's placeholder style.
func selectQuery(opts SQLOptions, placeholder func(n int) string) (string, []any, error) {
	table, err := quoteIdent(opts.Table)
	if err != nil {
		return "", nil, err
	}
	if opts.Schema != "" {
		schema, err := quoteIdent(opts.Schema)
		if err != nil {
			return "", nil, err
		}
		table = schema + "." + table
	}
	timeCol, err := quoteIdent(opts.TimeColumn)
	if err != nil {
		return "", nil, err
	}
	priceCol, err := quoteIdent(opts.PriceColumn)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s", timeCol, priceCol, table)
	var args []any
	var where []string
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		where = append(where, fmt.Sprintf("%s >= %s", timeCol, placeholder(len(args))))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		where = append(where, fmt.Sprintf("%s < %s", timeCol, placeholder(len(args))))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += fmt.Sprintf(" ORDER BY %s ASC", timeCol)
	return query, args, nil
}

func readSeries(ctx context.Context, db *sql.DB, query string, args ...any) ([]Sample, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var series []Sample
	for row := 0; rows.Next(); row++ {
		var rawTime, rawPrice any
		if err := rows.Scan(&rawTime, &rawPrice); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		ts, err := timeFromAny(rawTime)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		price, err := priceFromAny(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		series = append(series, Sample{Time: ts, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	sortByTime(series)
	return series, nil
}
