package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/persistence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "solar.db"))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, "items", "a", json.RawMessage(`{"id":"a","equipment":"Inversor"}`)))
	require.NoError(t, store.Insert(ctx, "items", "b", json.RawMessage(`{"id":"b","equipment":"Painel"}`)))
	require.Error(t, store.Insert(ctx, "items", "a", json.RawMessage(`{"id":"a"}`)), "duplicate id must be rejected")

	body, err := store.Get(ctx, "items", "a")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a","equipment":"Inversor"}`, string(body))

	list, err := store.List(ctx, "items")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.JSONEq(t, `{"id":"a","equipment":"Inversor"}`, string(list[0]))

	require.NoError(t, store.Replace(ctx, "items", "a", json.RawMessage(`{"id":"a","equipment":"Bateria"}`)))
	body, err = store.Get(ctx, "items", "a")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a","equipment":"Bateria"}`, string(body))

	require.NoError(t, store.Delete(ctx, "items", "a"))
	_, err = store.Get(ctx, "items", "a")
	require.ErrorIs(t, err, persistence.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "items", "a"), persistence.ErrNotFound)
	require.ErrorIs(t, store.Replace(ctx, "items", "a", json.RawMessage(`{}`)), persistence.ErrNotFound)
}

func TestStoreFindByIsScopedToCollection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, "users", "u1", json.RawMessage(`{"id":"u1","email":"ana@example.com"}`)))
	require.NoError(t, store.Insert(ctx, "users", "u2", json.RawMessage(`{"id":"u2","email":"bia@example.com"}`)))
	require.NoError(t, store.Insert(ctx, "items", "i1", json.RawMessage(`{"id":"i1","email":"ana@example.com"}`)))

	found, err := store.FindBy(ctx, "users", "email", "ana@example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.JSONEq(t, `{"id":"u1","email":"ana@example.com"}`, string(found[0]))

	none, err := store.FindBy(ctx, "users", "email", "nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCollectionOverSQLite(t *testing.T) {
	ctx := context.Background()
	type category struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Subcategories []string `json:"subcategories"`
	}
	categories := persistence.NewCollection[category](newTestStore(t), persistence.CollectionCategories)

	created, err := categories.Create(ctx, category{Name: "Roçada", Subcategories: []string{}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	created.Subcategories = append(created.Subcategories, "Poda")
	_, err = categories.Update(ctx, created)
	require.NoError(t, err)

	stored, err := categories.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Poda"}, stored.Subcategories)

	byName, err := categories.FindOneBy(ctx, "name", "Roçada")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, created.ID, byName.ID)
}
