package market

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lp-hedge-backtest/internal/clmm"
	"lp-hedge-backtest/internal/config"

	"github.com/stretchr/testify/require"
)

const tapeCSV = `block_number,block_timestamp,cb_btc_price
3,2025-09-01 00:00:13.000000 UTC,109120.5
1,2025-09-01T00:00:11Z,109100.25
2,2025-09-01 00:00:11.000000 UTC,109110
`

func TestReadCSVSortsStably(t *testing.T) {
	series, err := ReadCSV(strings.NewReader(tapeCSV), CSVOptions{TimeColumn: "block_timestamp", PriceColumn: "cb_btc_price"})
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, 109100.25, series[0].Price)
	require.Equal(t, 109110.0, series[1].Price)
	require.Equal(t, 109120.5, series[2].Price)
	require.True(t, series[0].Time.Equal(series[1].Time))
	require.True(t, series[2].Time.Equal(time.Date(2025, 9, 1, 0, 0, 13, 0, time.UTC)))
	require.NoError(t, Validate(series))
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(tapeCSV), CSVOptions{TimeColumn: "block_timestamp", PriceColumn: "price"})
	require.ErrorContains(t, err, `missing price column "price"`)
}

func TestReadCSVRejectsBadPrice(t *testing.T) {
	data := "block_timestamp,cb_btc_price\n2025-09-01T00:00:00Z,abc\n"
	_, err := ReadCSV(strings.NewReader(data), CSVOptions{TimeColumn: "block_timestamp", PriceColumn: "cb_btc_price"})
	require.ErrorContains(t, err, "csv line 2")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("block_timestamp,cb_btc_price\n"), CSVOptions{TimeColumn: "block_timestamp", PriceColumn: "cb_btc_price"})
	require.ErrorIs(t, err, ErrEmptySeries)
	_, err = ReadCSV(strings.NewReader(""), CSVOptions{})
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestReadCSVEpochAndPoolFilter(t *testing.T) {
	pool := "0xfBB6Eed8e7aa03B138556eeDaF5D271A5E1e43ef"
	data := "ts,pool,sqrt_price_x96\n" +
		"1756684800," + strings.ToLower(pool) + ",79228162514264337593543950336\n" +
		"1756684801,0x0000000000000000000000000000000000000001,158456325028528675187087900672\n" +
		"1756684802," + pool + ",0x2000000000000000000000000\n"
	series, err := ReadCSV(strings.NewReader(data), CSVOptions{
		TimeColumn:         "ts",
		SqrtPriceX96Column: "sqrt_price_x96",
		BaseDecimals:       8,
		QuoteDecimals:      6,
		PoolColumn:         "pool",
		PoolAddress:        pool,
	})
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.InDelta(t, 100, series[0].Price, 1e-9)
	require.InDelta(t, 400, series[1].Price, 1e-9)
	require.True(t, series[0].Time.Equal(time.Unix(1756684800, 0)))
}

func TestPriceFromSqrtX96(t *testing.T) {
	price, err := PriceFromSqrtX96("158456325028528675187087900672", 18, 18, false)
	require.NoError(t, err)
	require.InDelta(t, 4, price, 1e-12)

	price, err = PriceFromSqrtX96("158456325028528675187087900672", 18, 18, true)
	require.NoError(t, err)
	require.InDelta(t, 0.25, price, 1e-12)

	price, err = PriceFromSqrtX96("79228162514264337593543950336", 6, 8, false)
	require.NoError(t, err)
	require.InDelta(t, 0.01, price, 1e-15)

	_, err = PriceFromSqrtX96("not-a-number", 8, 6, false)
	require.Error(t, err)
	_, err = PriceFromSqrtX96("0", 8, 6, false)
	require.Error(t, err)
}

func TestValidateReportsOffendingSample(t *testing.T) {
	t0 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	series := []Sample{{Time: t0, Price: 100}, {Time: t0.Add(time.Second), Price: -1}}
	err := Validate(series)
	var sampleErr *SampleError
	require.ErrorAs(t, err, &sampleErr)
	require.Equal(t, 1, sampleErr.Index)
	require.ErrorIs(t, err, clmm.ErrInvalidPrice)

	series = []Sample{{Time: t0.Add(time.Second), Price: 100}, {Time: t0, Price: 101}}
	err = Validate(series)
	require.ErrorIs(t, err, ErrOutOfOrder)
	require.ErrorAs(t, err, &sampleErr)
	require.Equal(t, t0, sampleErr.Time)

	require.ErrorIs(t, Validate(nil), ErrEmptySeries)
	require.ErrorIs(t, Validate([]Sample{{Time: t0, Price: math.NaN()}}), clmm.ErrInvalidPrice)
}

func TestCodecRoundTrip(t *testing.T) {
	t0 := time.Date(2025, 9, 1, 0, 0, 0, 123, time.UTC)
	series := []Sample{{Time: t0, Price: 109100.25}, {Time: t0.Add(1500 * time.Millisecond), Price: 109101.5}}
	var buf bytes.Buffer
	require.NoError(t, EncodeSeries(&buf, series))
	got, err := DecodeSeries(&buf)
	require.NoError(t, err)
	require.Equal(t, series, got)
}

func TestCodecRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSeries(&buf, []Sample{{Time: time.Unix(1, 0).UTC(), Price: 1}}))
	raw := buf.Bytes()
	// the version value is the fixint right after the "version" key
	idx := bytes.Index(raw, []byte("version")) + len("version")
	raw[idx] = 0x07
	_, err := DecodeSeries(bytes.NewReader(raw))
	require.ErrorContains(t, err, "version 7")
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tape.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE prices (block_timestamp TEXT NOT NULL, cb_btc_price REAL NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO prices VALUES ('2025-09-01T00:00:02Z', 101.5), ('2025-09-01T00:00:01Z', 101), ('2025-09-01T00:00:03Z', '102.25')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	series, err := LoadSQLite(context.Background(), path, SQLOptions{Table: "prices", TimeColumn: "block_timestamp", PriceColumn: "cb_btc_price"})
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, []float64{101, 101.5, 102.25}, []float64{series[0].Price, series[1].Price, series[2].Price})
	require.True(t, series[0].Time.Equal(time.Date(2025, 9, 1, 0, 0, 1, 0, time.UTC)))

	_, err = LoadSQLite(context.Background(), path, SQLOptions{Table: "missing", TimeColumn: "block_timestamp", PriceColumn: "cb_btc_price"})
	require.Error(t, err)
}

func TestSelectQuery(t *testing.T) {
	query, args, err := selectQuery(SQLOptions{
		Schema:      "public",
		Table:       "swaps",
		TimeColumn:  "ts",
		PriceColumn: "price",
		From:        time.Unix(10, 0),
		To:          time.Unix(20, 0),
	}, func(n int) string { return "$" + string(rune('0'+n)) })
	require.NoError(t, err)
	require.Equal(t, `SELECT "ts", "price" FROM "public"."swaps" WHERE "ts" >= $1 AND "ts" < $2 ORDER BY "ts" ASC`, query)
	require.Len(t, args, 2)

	_, _, err = selectQuery(SQLOptions{Table: "swaps; DROP TABLE x", TimeColumn: "ts", PriceColumn: "price"}, nil)
	require.Error(t, err)
}

func TestLoadTimescaleRequiresDSN(t *testing.T) {
	_, err := LoadTimescale(context.Background(), " ", SQLOptions{Table: "swaps", TimeColumn: "ts", PriceColumn: "price"})
	require.Error(t, err)
}

func TestLoadFromConfigMsgpack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tape.msgpack")
	t0 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	series := []Sample{{Time: t0, Price: 100}, {Time: t0.Add(time.Minute), Price: 100.5}}
	require.NoError(t, WriteSeriesFile(path, series))
	got, err := Load(context.Background(), config.TapeConfig{Format: "msgpack", Path: path})
	require.NoError(t, err)
	require.Equal(t, series, got)

	_, err = Load(context.Background(), config.TapeConfig{Format: "parquet"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrEmptySeries))
}

func TestWindow(t *testing.T) {
	t0 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	series := []Sample{
		{Time: t0, Price: 100},
		{Time: t0.Add(time.Minute), Price: 101},
		{Time: t0.Add(time.Minute), Price: 101.5},
		{Time: t0.Add(2 * time.Minute), Price: 102},
	}
	require.Equal(t, series, Window(series, time.Time{}, time.Time{}))
	require.Equal(t, series[1:3], Window(series, t0.Add(time.Minute), t0.Add(2*time.Minute)))
	require.Equal(t, series[1:], Window(series, t0.Add(30*time.Second), time.Time{}))
	require.Equal(t, series[:1], Window(series, time.Time{}, t0.Add(time.Second)))
	require.Empty(t, Window(series, t0.Add(time.Hour), time.Time{}))
}

func TestLoadAppliesTapeWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tape.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE prices (ts TEXT NOT NULL, price REAL NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO prices VALUES ('2025-09-01T00:00:00Z', 100), ('2025-09-02T00:00:00Z', 101), ('2025-09-03T00:00:00Z', 102)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := config.TapeConfig{
		Format:      "sqlite",
		Path:        path,
		Table:       "prices",
		TimeColumn:  "ts",
		PriceColumn: "price",
		From:        time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
	}
	series, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, 101.0, series[0].Price)

	cfg.From = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	cfg.To = time.Time{}
	_, err = Load(context.Background(), cfg)
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestDescribe(t *testing.T) {
	t0 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	series := []Sample{
		{Time: t0, Price: 100},
		{Time: t0, Price: 101},
		{Time: t0.Add(2 * time.Second), Price: 99},
		{Time: t0.Add(6 * time.Second), Price: 102},
	}
	stats := Describe(series)
	require.Equal(t, 4, stats.Count)
	require.Equal(t, 3, stats.UniqueTimes)
	require.Equal(t, 99.0, stats.MinPrice)
	require.Equal(t, 102.0, stats.MaxPrice)
	require.Equal(t, time.Duration(0), stats.Gaps.Min)
	require.Equal(t, 4*time.Second, stats.Gaps.Max)
	require.Equal(t, 2*time.Second, stats.Gaps.Mean)
	require.Equal(t, 2*time.Second, stats.Gaps.Median)
}
