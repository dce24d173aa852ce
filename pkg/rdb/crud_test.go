package rdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/core/record"
)

func seedUsers(t *testing.T, c *Client, from, to int) {
	t.Helper()
	_, err := c.AddMany(context.Background(), "users", users(from, to), "", "id")
	require.NoError(t, err)
}

func TestAddItems_Idempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	batch := users(1, 25)

	n, err := c.AddItems(ctx, "users", batch, "code")
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)

	n, err = c.AddItems(ctx, "users", batch, "code")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	total, err := c.Count(ctx, "users", clause.Fragment{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
}

func TestAddItems_OnlyNewSubset(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 5)

	n, err := c.AddItems(ctx, "users", users(4, 8), "code")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAddItems_MissingCheckField(t *testing.T) {
	c := newTestClient(t, nil)

	_, err := c.AddItems(context.Background(), "users", []record.Record{{"id": 1}}, "code")
	assert.ErrorIs(t, err, record.ErrMissingField)
}

func TestAddMany_SchemaMismatch(t *testing.T) {
	c := newTestClient(t, nil)

	items := []record.Record{
		{"id": 1, "name": "a"},
		{"id": 2, "code": "B"},
	}
	_, err := c.AddMany(context.Background(), "users", items, "", "id")
	assert.ErrorIs(t, err, record.ErrSchemaMismatch)

	_, err = c.AddMany(context.Background(), "users", nil, "", "id")
	assert.ErrorIs(t, err, record.ErrEmptyBatch)
}

func TestAddOne_Upsert(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)

	_, err := c.AddOne(ctx, "users", record.Record{"id": 1, "name": "first"}, "", "id")
	require.NoError(t, err)

	// без update существующая строка не меняется
	_, err = c.AddOne(ctx, "users", record.Record{"id": 1, "name": "second"}, "", "id")
	require.NoError(t, err)
	rows, err := c.Query(ctx, "users", "name", 0, clause.MatchMap(map[string]any{"id": 1}))
	require.NoError(t, err)
	assert.Equal(t, "first", rows[0]["name"])

	_, err = c.AddOne(ctx, "users", record.Record{"id": 1, "name": "third"}, "name=excluded.name", "id")
	require.NoError(t, err)
	rows, err = c.Query(ctx, "users", "name", 0, clause.MatchMap(map[string]any{"id": 1}))
	require.NoError(t, err)
	assert.Equal(t, "third", rows[0]["name"])
}

func TestCheckValues(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 3)

	missing, existing, err := c.CheckValues(ctx, "users", "code", []any{"U00003", "X1", "U00001", "X1", "X2"})
	require.NoError(t, err)
	assert.Equal(t, []any{"X1", "X2"}, missing)
	assert.Equal(t, []any{"U00003", "U00001"}, existing)

	missing, existing, err = c.CheckValues(ctx, "users", "id", []any{2, 7})
	require.NoError(t, err)
	assert.Equal(t, []any{7}, missing)
	assert.Equal(t, []any{2}, existing)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 2)

	ok, err := c.Exists(ctx, "users", clause.Match(clause.Pairs("code", "U00002", "deleted", nil)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(ctx, "users", clause.Match(clause.Pairs("code", "U00002", "deleted", true)))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Exists(ctx, "users", clause.Fragment{})
	assert.ErrorIs(t, err, ErrNoCondition)
}

func TestUpdate_FragmentsAndLimit(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 10)

	n, err := c.Update(ctx, "users", clause.Raw("age = age + 1"), clause.Raw("id <= 3"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = c.Update(ctx, "users", clause.MatchMap(map[string]any{"deleted": "y"}), clause.MatchMap(map[string]any{"code": "U00005"}), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = c.Update(ctx, "users", clause.Raw("age = 0"), clause.Raw("1 = 1"), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExecution)

	_, err = c.Update(ctx, "users", clause.Raw("age = 0"), clause.Fragment{}, 0)
	assert.ErrorIs(t, err, ErrNoCondition)
}

func TestUpdateSomeAndQuerySome(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 10)

	n, err := c.UpdateSome(ctx, "users", clause.MatchMap(map[string]any{"deleted": "y"}), "id", []any{2, 4, 6})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := c.QuerySome(ctx, "users", []string{"id", "deleted"}, "id", []any{2, 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[int64]any{}
	for _, r := range rows {
		byID[r["id"].(int64)] = r["deleted"]
	}
	assert.Equal(t, "y", byID[2])
	assert.Nil(t, byID[3])

	n, err = c.UpdateSome(ctx, "users", clause.Raw("age = 0"), "id", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdateOne_DoesNotMutateItem(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 2)

	item := record.Record{"code": "U00002", "name": "renamed", "age": 99}
	n, err := c.UpdateOne(ctx, "users", item, "code")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, item, "code")

	row, err := c.QueryOne(ctx, "q", "SELECT name, age FROM users WHERE code = ?", "U00002")
	require.NoError(t, err)
	assert.Equal(t, "renamed", row["name"])
	assert.Equal(t, int64(99), row["age"])

	_, err = c.UpdateOne(ctx, "users", record.Record{"name": "x"}, "code")
	assert.ErrorIs(t, err, record.ErrMissingField)

	_, err = c.UpdateOne(ctx, "users", record.Record{"code": "U00001"}, "code")
	assert.ErrorIs(t, err, ErrNothingToUpdate)
}

func TestUpdateManyAndQuickUpdate(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 5)

	n, err := c.UpdateMany(ctx, "users", []record.Record{
		{"id": 1, "name": "one"},
		{"id": 2, "name": "two"},
	}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.QuickUpdate(ctx, "users", []record.Record{
		{"id": 3, "name": "three", "age": 33},
		{"id": 4, "name": "four", "age": 44},
	}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := c.Query(ctx, "users", "id, name, age", 0, clause.Raw("id BETWEEN 1 AND 4"))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	names := map[int64]string{}
	ages := map[int64]int64{}
	for _, r := range rows {
		names[r["id"].(int64)] = r["name"].(string)
		ages[r["id"].(int64)] = r["age"].(int64)
	}
	assert.Equal(t, map[int64]string{1: "one", 2: "two", 3: "three", 4: "four"}, names)
	assert.Equal(t, int64(33), ages[3])
	assert.Equal(t, int64(44), ages[4])

	_, err = c.UpdateMany(ctx, "users", []record.Record{{"id": 1, "name": "x"}, {"name": "y"}}, "id")
	assert.ErrorIs(t, err, record.ErrMissingField)

	_, err = c.QuickUpdate(ctx, "users", []record.Record{{"id": 1, "name": "x"}, {"id": 2, "age": 1}}, "id")
	assert.ErrorIs(t, err, record.ErrSchemaMismatch)
}

func TestQueryCountMinMaxRandom(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)

	v, err := c.Min(ctx, "users", "id")
	require.NoError(t, err)
	assert.Nil(t, v)

	seedUsers(t, c, 3, 12)

	v, err = c.Min(ctx, "users", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = c.Max(ctx, "users", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	n, err := c.Count(ctx, "users", clause.MatchMap(map[string]any{"deleted": false}))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rows, err := c.Query(ctx, "users", "", 4, clause.Fragment{})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = c.Random(ctx, "users", 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)
	seedUsers(t, c, 1, 6)

	n, err := c.DeleteOne(ctx, "users", "code", "U00001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.DeleteMany(ctx, "users", "id", []any{2, 3, 42})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.DeleteMany(ctx, "users", "id", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	total, err := c.Count(ctx, "users", clause.Fragment{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
