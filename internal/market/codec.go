package market

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const codecVersion = 1

// EncodeSeries writes the tape as a msgpack map:
// {"version": 1, "samples": [[unix_nanos, price], ...]}.
func EncodeSeries(w io.Writer, series []Sample) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeMapLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString("version"); err != nil {
		return err
	}
	if err := enc.EncodeInt(codecVersion); err != nil {
		return err
	}
	if err := enc.EncodeString("samples"); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(series)); err != nil {
		return err
	}
	for _, s := range series {
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeInt(s.Time.UnixNano()); err != nil {
			return err
		}
		if err := enc.EncodeFloat64(s.Price); err != nil {
			return err
		}
	}
	return nil
}

func DecodeSeries(r io.Reader) ([]Sample, error) {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	version := 0
	var series []Sample
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "version":
			if version, err = dec.DecodeInt(); err != nil {
				return nil, err
			}
		case "samples":
			if series, err = decodeSamples(dec); err != nil {
				return nil, err
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if version != codecVersion {
		return nil, fmt.Errorf("unsupported tape codec version %d", version)
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	return series, nil
}

func decodeSamples(dec *msgpack.Decoder) ([]Sample, error) {
	count, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, nil
	}
	series := make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		fields, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		if fields != 2 {
			return nil, fmt.Errorf("sample %d: expected 2 fields, got %d", i, fields)
		}
		nanos, err := dec.DecodeInt64()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		price, err := dec.DecodeFloat64()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		series = append(series, Sample{Time: time.Unix(0, nanos).UTC(), Price: price})
	}
	return series, nil
}

func WriteSeriesFile(path string, series []Sample) error {
	if len(series) == 0 {
		return errors.New("refusing to write an empty tape")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(file)
	if err := EncodeSeries(buf, series); err != nil {
		_ = file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func ReadSeriesFile(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeSeries(bufio.NewReader(file))
}
