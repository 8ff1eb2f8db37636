package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/storage"
)

func doc(id, data string) storage.Document {
	return storage.Document{Resource: "courses", ID: id, Data: []byte(data)}
}

func TestDB(t *testing.T) {
	ctx := context.Background()
	db := New()

	_, err := db.Create(ctx, doc("1", `{"id":"1","code":"MTH101","units":4}`))
	require.NoError(t, err)
	_, err = db.Create(ctx, doc("2", `{"id":"2","code":"CSC101","units":3}`))
	require.NoError(t, err)

	_, err = db.Create(ctx, doc("2", `{}`))
	assert.Equal(t, storage.ErrConflict, err)

	all, err := db.List(ctx, "courses", storage.Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)

	sorted, err := db.List(ctx, "courses", storage.Query{Ordering: []core.DBOrdering{{Field: "code", Ascending: true}}})
	require.NoError(t, err)
	assert.Equal(t, "2", sorted[0].ID)

	found, err := db.List(ctx, "courses", storage.Query{Search: "csc", SearchFields: []string{"code"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2", found[0].ID)

	none, err := db.List(ctx, "students", storage.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)

	upd, err := db.Update(ctx, doc("1", `{"id":"1","code":"MTH102","units":4}`))
	require.NoError(t, err)
	assert.False(t, upd.CreatedAt.IsZero())
	got, err := db.Get(ctx, "courses", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","code":"MTH102","units":4}`, string(got.Data))

	_, err = db.Update(ctx, doc("9", `{}`))
	assert.Equal(t, storage.ErrNotFound, err)

	require.NoError(t, db.Delete(ctx, "courses", "1"))
	assert.Equal(t, storage.ErrNotFound, db.Delete(ctx, "courses", "1"))
	_, err = db.Get(ctx, "courses", "1")
	assert.Equal(t, storage.ErrNotFound, err)

	db.Reset()
	all, err = db.List(ctx, "courses", storage.Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
