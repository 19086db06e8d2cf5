package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

type CSVOptions struct {
	TimeColumn         string
	PriceColumn        string
	SqrtPriceX96Column string
	BaseDecimals       int
	QuoteDecimals      int
	InvertPrice        bool
	PoolColumn         string
	PoolAddress        string
}

func ReadCSVFile(path string, opts CSVOptions) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file, opts)
}

// ReadCSV parses a header-first price tape and returns it ordered by time. Rows
// sharing a timestamp keep their file order.
func ReadCSV(r io.Reader, opts CSVOptions) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySeries
		}
		return nil, err
	}
	cols := indexColumns(header)
	timeIdx, ok := cols[strings.ToLower(opts.TimeColumn)]
	if !ok {
		return nil, fmt.Errorf("csv missing time column %q", opts.TimeColumn)
	}
	priceIdx, x96Idx := -1, -1
	if opts.SqrtPriceX96Column != "" {
		if x96Idx, ok = cols[strings.ToLower(opts.SqrtPriceX96Column)]; !ok {
			return nil, fmt.Errorf("csv missing sqrt price column %q", opts.SqrtPriceX96Column)
		}
	} else if priceIdx, ok = cols[strings.ToLower(opts.PriceColumn)]; !ok {
		return nil, fmt.Errorf("csv missing price column %q", opts.PriceColumn)
	}
	filter, err := newPoolFilter(opts.PoolAddress)
	if err != nil {
		return nil, err
	}
	poolIdx := -1
	if filter.on {
		if poolIdx, ok = cols[strings.ToLower(opts.PoolColumn)]; !ok {
			return nil, fmt.Errorf("csv missing pool column %q", opts.PoolColumn)
		}
	}

	var series []Sample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if poolIdx >= 0 {
			keep, err := filter.keep(field(record, poolIdx))
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
			if !keep {
				continue
			}
		}
		ts, err := parseTime(field(record, timeIdx))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		var price float64
		if x96Idx >= 0 {
			price, err = PriceFromSqrtX96(field(record, x96Idx), opts.BaseDecimals, opts.QuoteDecimals, opts.InvertPrice)
		} else {
			price, err = parsePrice(field(record, priceIdx))
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		series = append(series, Sample{Time: ts, Price: price})
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	sortByTime(series)
	return series, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func sortByTime(series []Sample) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})
}
