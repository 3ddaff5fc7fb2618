package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/persistence"
	"github.com/tigocode/solar-back/internal/persistence/memory"
)

func newCatalog() *CatalogService {
	store := memory.NewStore()
	return NewCatalogService(
		persistence.NewCollection[Category](store, persistence.CollectionCategories),
		persistence.NewCollection[Item](store, persistence.CollectionItems),
	)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog()

	_, err := catalog.CreateCategory(ctx, " ")
	require.ErrorIs(t, err, ErrValidation)

	category, err := catalog.CreateCategory(ctx, "Roçada")
	require.NoError(t, err)
	require.Equal(t, []string{}, category.Subcategories)

	category, err = catalog.AddSubcategory(ctx, category.ID, "Manual")
	require.NoError(t, err)
	category, err = catalog.AddSubcategory(ctx, category.ID, "Mecanizada")
	require.NoError(t, err)
	require.Equal(t, []string{"Manual", "Mecanizada"}, category.Subcategories)

	_, err = catalog.AddSubcategory(ctx, category.ID, "Manual")
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorContains(t, err, "subcategory already exists")

	category, err = catalog.RemoveSubcategory(ctx, category.ID, "Manual")
	require.NoError(t, err)
	require.Equal(t, []string{"Mecanizada"}, category.Subcategories)

	category, err = catalog.RenameCategory(ctx, category.ID, "Capina")
	require.NoError(t, err)
	require.Equal(t, "Capina", category.Name)

	_, err = catalog.RenameCategory(ctx, category.ID, "")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, catalog.DeleteCategory(ctx, category.ID))
	require.NoError(t, catalog.DeleteCategory(ctx, category.ID))
	_, err = catalog.GetCategory(ctx, category.ID)
	require.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = catalog.AddSubcategory(ctx, category.ID, "Manual")
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestItemLifecycle(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog()

	_, err := catalog.CreateItem(ctx, ItemInput{Equipment: "Inversor"})
	require.ErrorIs(t, err, ErrValidation)

	item, err := catalog.CreateItem(ctx, ItemInput{
		Equipment:    "Inversor",
		Model:        "SG250HX",
		Manufacturer: "Sungrow",
		Quantity:     ptr(4),
		Location:     "Almoxarifado",
	})
	require.NoError(t, err)
	require.Equal(t, 4, item.Quantity)

	updated, err := catalog.UpdateItem(ctx, item.ID, ItemInput{Location: "Usina 2", Quantity: ptr(0)})
	require.NoError(t, err)
	require.Equal(t, "Usina 2", updated.Location)
	require.Equal(t, "SG250HX", updated.Model, "empty fields are not applied")
	require.Equal(t, 0, updated.Quantity)

	items, err := catalog.ListItems(ctx)
	require.NoError(t, err)
	require.Equal(t, []Item{*updated}, items)

	require.NoError(t, catalog.DeleteItem(ctx, item.ID))
	_, err = catalog.UpdateItem(ctx, item.ID, ItemInput{Model: "x"})
	require.ErrorIs(t, err, ErrItemNotFound)
}
