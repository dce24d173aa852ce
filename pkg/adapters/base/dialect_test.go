package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "update t set a=? where b=? and c='?'"

	assert.Equal(t, q, Rebind(Question, q))
	assert.Equal(t, "update t set a=$1 where b=$2 and c='?'", Rebind(Dollar, q))
	assert.Equal(t, "update t set a=@p1 where b=@p2 and c='?'", Rebind(AtP, q))
}

func TestRebind_QuotedIdentifiers(t *testing.T) {
	got := Rebind(Dollar, "select \"a?\" from t where x = ? and y = `?` and z = ?")
	assert.Equal(t, "select \"a?\" from t where x = $1 and y = `?` and z = $2", got)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(0))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
}

func TestStandardSQL_SelectLimit(t *testing.T) {
	d := StandardSQL{}
	assert.Equal(t, "SELECT * FROM users", d.SelectLimit("", "users", "", "", 0))
	assert.Equal(t,
		"SELECT id, name FROM users WHERE id >= ? ORDER BY id LIMIT 10",
		d.SelectLimit("id, name", "users", "id >= ?", "id", 10))
}

func TestOnConflictUpsert(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO users(id, name) VALUES(?, ?) ON CONFLICT(id) DO UPDATE SET id=excluded.id",
		OnConflictUpsert("users", []string{"id", "name"}, "id", ""))
	assert.Equal(t,
		"INSERT INTO users(id, name) VALUES(?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name",
		OnConflictUpsert("users", []string{"id", "name"}, "id", "name=excluded.name"))
}
