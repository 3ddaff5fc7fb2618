package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tigocode/solar-back/internal/persistence"
)

// Category groups activities and carries a flat list of subcategory names.
type Category struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Item is an inventory entry.
type Item struct {
	ID              string `json:"id"`
	Equipment       string `json:"equipment"`
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer"`
	Quantity        int    `json:"quantity"`
	Location        string `json:"location"`
	Characteristics string `json:"characteristics"`
}

// Repository is the CRUD contract shared by the flat catalog records.
type Repository[T any] interface {
	Create(ctx context.Context, record T) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, id string) error
}

// CatalogService manages categories and inventory items.
type CatalogService struct {
	categories Repository[Category]
	items      Repository[Item]
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(categories Repository[Category], items Repository[Item]) *CatalogService {
	return &CatalogService{categories: categories, items: items}
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.categories.FindAll(ctx)
}

// GetCategory fetches by ID.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// CreateCategory stores a category with no subcategories. name is required.
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name is required")
	}
	created, err := s.categories.Create(ctx, Category{Name: name, Subcategories: []string{}})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &created, nil
}

// RenameCategory replaces the category name.
func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name is required")
	}
	return s.mutateCategory(ctx, id, func(c *Category) error {
		c.Name = name
		return nil
	})
}

// AddSubcategory appends name unless the category already lists it.
func (s *CatalogService) AddSubcategory(ctx context.Context, id, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("subcategory name is required")
	}
	return s.mutateCategory(ctx, id, func(c *Category) error {
		if slices.Contains(c.Subcategories, name) {
			return invalid("subcategory already exists")
		}
		c.Subcategories = append(c.Subcategories, name)
		return nil
	})
}

// RemoveSubcategory drops name from the category; a missing name is ignored.
func (s *CatalogService) RemoveSubcategory(ctx context.Context, id, name string) (*Category, error) {
	return s.mutateCategory(ctx, id, func(c *Category) error {
		c.Subcategories = slices.DeleteFunc(c.Subcategories, func(sub string) bool { return sub == name })
		return nil
	})
}

// DeleteCategory removes a category. Deleting a missing category is not an error.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return ignoreNotFound(s.categories.Delete(ctx, id))
}

func (s *CatalogService) mutateCategory(ctx context.Context, id string, mutate func(*Category) error) (*Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.Subcategories == nil {
		category.Subcategories = []string{}
	}
	if err := mutate(category); err != nil {
		return nil, err
	}
	updated, err := s.categories.Update(ctx, *category)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category %s: %w", id, err)
	}
	return &updated, nil
}

// ItemInput carries item fields. Quantity is a pointer so zero can be told apart from absent.
type ItemInput struct {
	Equipment       string
	Model           string
	Manufacturer    string
	Quantity        *int
	Location        string
	Characteristics string
}

// ListItems returns the inventory.
func (s *CatalogService) ListItems(ctx context.Context) ([]Item, error) {
	return s.items.FindAll(ctx)
}

// GetItem fetches by ID.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// CreateItem stores an item. equipment and quantity are required.
func (s *CatalogService) CreateItem(ctx context.Context, input ItemInput) (*Item, error) {
	if strings.TrimSpace(input.Equipment) == "" || input.Quantity == nil {
		return nil, invalid("equipment and quantity are required")
	}
	created, err := s.items.Create(ctx, Item{
		Equipment:       input.Equipment,
		Model:           input.Model,
		Manufacturer:    input.Manufacturer,
		Quantity:        *input.Quantity,
		Location:        input.Location,
		Characteristics: input.Characteristics,
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &created, nil
}

// UpdateItem overwrites only the non-empty text fields and a supplied quantity.
func (s *CatalogService) UpdateItem(ctx context.Context, id string, input ItemInput) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	overwrite(&item.Equipment, input.Equipment)
	overwrite(&item.Model, input.Model)
	overwrite(&item.Manufacturer, input.Manufacturer)
	overwrite(&item.Location, input.Location)
	overwrite(&item.Characteristics, input.Characteristics)
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}

	updated, err := s.items.Update(ctx, *item)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteItem removes an item. Deleting a missing item is not an error.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	return ignoreNotFound(s.items.Delete(ctx, id))
}

func overwrite(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func ignoreNotFound(err error) error {
	if err == nil || errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	return err
}
