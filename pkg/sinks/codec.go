package sinks

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/sqlscan/pkg/core/record"
)

// Кодировки тела сообщения
const (
	EncodingJSONL     = "jsonl"
	EncodingJSONLZstd = "jsonl+zstd"
)

// Payload - сериализованный батч: JSON lines, опционально сжатые zstd,
// и xxh3 хеш тела (hex)
type Payload struct {
	Body     []byte
	Encoding string
	Checksum string
	Rows     int
}

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Checksum возвращает xxh3 хеш данных в hex
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// Encode сериализует строки в JSON lines
func Encode(rows []record.Record, compress bool) (Payload, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return Payload{}, fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}

	p := Payload{Body: buf.Bytes(), Encoding: EncodingJSONL, Rows: len(rows)}
	if compress {
		zw, err := encoder()
		if err != nil {
			return Payload{}, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		p.Body = zw.EncodeAll(p.Body, nil)
		p.Encoding = EncodingJSONLZstd
	}
	p.Checksum = Checksum(p.Body)
	return p, nil
}

// Decode проверяет хеш и разбирает тело обратно в строки.
// Числа возвращаются как json.Number.
func Decode(p Payload) ([]record.Record, error) {
	if p.Checksum != "" {
		if actual := Checksum(p.Body); actual != p.Checksum {
			return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", p.Checksum, actual)
		}
	}

	body := p.Body
	switch p.Encoding {
	case EncodingJSONL, "":
	case EncodingJSONLZstd:
		zr, err := decoder()
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		if body, err = zr.DecodeAll(p.Body, nil); err != nil {
			return nil, fmt.Errorf("failed to decompress zstd: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown encoding: %s", p.Encoding)
	}

	var rows []record.Record
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(sc.Bytes()))
		dec.UseNumber()
		var row record.Record
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
