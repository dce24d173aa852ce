package record

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniform_DerivesSortedColumns(t *testing.T) {
	items := []Record{
		{"name": "a", "id": 1, "age": 20},
		{"age": 30, "id": 2, "name": "b"},
	}

	cols, err := Uniform(items, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "id", "name"}, cols)
	assert.Equal(t, []any{30, 2, "b"}, items[1].Values(cols))
}

func TestUniform_Errors(t *testing.T) {
	_, err := Uniform(nil, "")
	assert.True(t, errors.Is(err, ErrEmptyBatch))

	_, err = Uniform([]Record{{"id": 1}, {"id": 2, "name": "x"}}, "")
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = Uniform([]Record{{"id": 1, "name": "a"}, {"id": 2, "age": 3}}, "")
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = Uniform([]Record{{"name": "a"}}, "id")
	assert.True(t, errors.Is(err, ErrMissingField))

	_, err = Uniform([]Record{{"id": 1, "name": "a"}, {"name": "b", "age": 1}}, "id")
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Without([]string{"a", "b", "c"}, "b"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "abc", Normalize([]byte("abc"), "VARCHAR"))
	assert.Equal(t, []byte{0x1, 0x2}, Normalize([]byte{0x1, 0x2}, "BLOB"))
	assert.Equal(t, []byte{0x1}, Normalize([]byte{0x1}, "varbinary"))
	assert.Equal(t, int64(5), Normalize(int32(5), "INT"))
	assert.Nil(t, Normalize(nil, "INT"))
}

func TestSameValue(t *testing.T) {
	assert.True(t, SameValue(int64(2500), []byte("2500")))
	assert.True(t, SameValue("2500", int64(2500)))
	assert.False(t, SameValue(int64(1), int64(2)))
	assert.False(t, SameValue(nil, int64(2)))
	assert.True(t, SameValue(nil, nil))
}

func TestEncodeDecodeKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []any{int64(9007199254740993), "user-42", ts, 2.5}

	for _, c := range cases {
		s, kind, err := EncodeKey(c)
		require.NoError(t, err)
		back, err := DecodeKey(s, kind)
		require.NoError(t, err)
		assert.True(t, SameValue(c, back), "key %v restored as %v", c, back)
	}

	_, _, err := EncodeKey(nil)
	assert.Error(t, err)
	_, err = DecodeKey("1", "weird")
	assert.Error(t, err)
}

func TestAsInt64(t *testing.T) {
	n, ok := AsInt64([]byte("42"))
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = AsInt64("x")
	assert.False(t, ok)
	_, ok = AsInt64(1.5)
	assert.False(t, ok)
}
