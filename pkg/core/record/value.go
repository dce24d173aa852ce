package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeyKind - тип значения ключа сортировки при сериализации
type KeyKind string

const (
	KindInt    KeyKind = "int"
	KindUint   KeyKind = "uint"
	KindFloat  KeyKind = "float"
	KindString KeyKind = "string"
	KindBytes  KeyKind = "bytes"
	KindTime   KeyKind = "time"
)

// IsBinaryType reports whether a driver column type name holds opaque binary
// data. Such values stay []byte; every other []byte from the driver is text.
func IsBinaryType(dbType string) bool {
	t := strings.ToUpper(dbType)
	return strings.Contains(t, "BLOB") ||
		strings.Contains(t, "BINARY") ||
		strings.Contains(t, "BYTEA") ||
		t == "IMAGE"
}

// Normalize converts a value scanned into *any to the record representation.
func Normalize(v any, dbType string) any {
	switch val := v.(type) {
	case []byte:
		if IsBinaryType(dbType) {
			return val
		}
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// SameValue compares two sort-key values that may come from different
// driver paths (text protocol returns "2500", binary protocol returns int64).
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return keyText(a) == keyText(b)
}

func keyText(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// EncodeKey serializes a sort-key value with its kind so it can be stored
// in a checkpoint and restored with the same Go type.
func EncodeKey(v any) (string, KeyKind, error) {
	switch val := v.(type) {
	case int:
		return strconv.FormatInt(int64(val), 10), KindInt, nil
	case int32:
		return strconv.FormatInt(int64(val), 10), KindInt, nil
	case int64:
		return strconv.FormatInt(val, 10), KindInt, nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), KindUint, nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), KindUint, nil
	case uint64:
		return strconv.FormatUint(val, 10), KindUint, nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), KindFloat, nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), KindFloat, nil
	case string:
		return val, KindString, nil
	case []byte:
		return string(val), KindBytes, nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), KindTime, nil
	case nil:
		return "", "", fmt.Errorf("cannot encode nil key")
	default:
		return "", "", fmt.Errorf("unsupported key type %T", v)
	}
}

// DecodeKey is the inverse of EncodeKey.
func DecodeKey(s string, kind KeyKind) (any, error) {
	switch kind {
	case KindInt:
		return strconv.ParseInt(s, 10, 64)
	case KindUint:
		return strconv.ParseUint(s, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(s, 64)
	case KindString:
		return s, nil
	case KindBytes:
		return []byte(s), nil
	case KindTime:
		return time.Parse(time.RFC3339Nano, s)
	default:
		return nil, fmt.Errorf("unknown key kind %q", kind)
	}
}

// AsInt64 converts an integer-like key to int64. Text keys from the MySQL
// text protocol ("42") are parsed.
func AsInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case []byte:
		n, err := strconv.ParseInt(string(val), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
