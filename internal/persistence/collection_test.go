package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/persistence"
	"github.com/tigocode/solar-back/internal/persistence/memory"
)

type widget struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCollectionAssignsIDsAndPreservesOrder(t *testing.T) {
	ctx := context.Background()
	widgets := persistence.NewCollection[widget](memory.NewStore(), "widgets")

	first, err := widgets.Create(ctx, widget{Name: "first"})
	require.NoError(t, err)
	second, err := widgets.Create(ctx, widget{ID: "ignored", Name: "second"})
	require.NoError(t, err)

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, "ignored", second.ID, "repository owns identifiers")
	require.NotEqual(t, first.ID, second.ID)

	all, err := widgets.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []widget{first, second}, all)
}

func TestCollectionUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	widgets := persistence.NewCollection[widget](memory.NewStore(), "widgets")

	created, err := widgets.Create(ctx, widget{Name: "gear", Count: 1})
	require.NoError(t, err)

	created.Count = 7
	updated, err := widgets.Update(ctx, created)
	require.NoError(t, err)
	require.Equal(t, 7, updated.Count)

	stored, err := widgets.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 7, stored.Count)

	require.NoError(t, widgets.Delete(ctx, created.ID))
	require.ErrorIs(t, widgets.Delete(ctx, created.ID), persistence.ErrNotFound)

	_, err = widgets.Update(ctx, created)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	missing, err := widgets.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCollectionUpdateRequiresID(t *testing.T) {
	widgets := persistence.NewCollection[widget](memory.NewStore(), "widgets")
	_, err := widgets.Update(context.Background(), widget{Name: "orphan"})
	require.Error(t, err)
}

func TestCollectionFindOneBy(t *testing.T) {
	ctx := context.Background()
	widgets := persistence.NewCollection[widget](memory.NewStore(), "widgets")

	_, err := widgets.Create(ctx, widget{Name: "bolt"})
	require.NoError(t, err)
	nut, err := widgets.Create(ctx, widget{Name: "nut"})
	require.NoError(t, err)

	found, err := widgets.FindOneBy(ctx, "name", "nut")
	require.NoError(t, err)
	require.Equal(t, nut.ID, found.ID)

	none, err := widgets.FindOneBy(ctx, "name", "washer")
	require.NoError(t, err)
	require.Nil(t, none)
}
