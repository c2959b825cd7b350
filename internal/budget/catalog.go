// Package budget holds the category goal model: the percentage targets that
// split monthly income into budget buckets.
package budget

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"finhelper/internal/core"
)

// DefaultCategories returns the six seeded categories; percentages sum to 100.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "custos-fixos", Name: "Custos fixos", Color: "#4a90e2", Percentage: 35, Subcategories: []core.Subcategory{}},
		{ID: "conforto", Name: "Conforto", Color: "#00d4aa", Percentage: 15, Subcategories: []core.Subcategory{}},
		{ID: "metas", Name: "Metas", Color: "#f5d547", Percentage: 10, Subcategories: []core.Subcategory{}},
		{ID: "prazeres", Name: "Prazeres", Color: "#d946ef", Percentage: 10, Subcategories: []core.Subcategory{}},
		{ID: core.FreedomCategoryID, Name: "Liberdade financeira", Color: "#60a5fa", Percentage: 25, Subcategories: []core.Subcategory{}},
		{ID: "conhecimento", Name: "Conhecimento", Color: "#fb923c", Percentage: 5, Subcategories: []core.Subcategory{}},
	}
}

// UsageChecker answers whether any stored month still refers to a category.
type UsageChecker interface {
	CategoryUsed(categoryID string) bool
}

// CategoryInput carries the user-editable fields of a new category.
type CategoryInput struct {
	Name       string
	Color      string
	Percentage float64
}

// CategoryPatch merges non-nil fields into an existing category.
type CategoryPatch struct {
	Name       *string
	Color      *string
	Percentage *float64
	IsArchived *bool
}

// SubcategoryPatch merges non-nil fields into an existing subcategory.
type SubcategoryPatch struct {
	Name  *string
	Value *core.Money
}

// Catalog is the ordered list of categories. It is not safe for concurrent
// use; the owning service serializes access.
type Catalog struct {
	categories []core.Category
}

// NewCatalog wraps categories, seeding the defaults when the list is empty.
func NewCatalog(categories []core.Category) *Catalog {
	if len(categories) == 0 {
		return &Catalog{categories: DefaultCategories()}
	}
	c := &Catalog{}
	c.Replace(categories)
	return c
}

// All returns a copy of the categories in insertion order.
func (c *Catalog) All() []core.Category {
	out := make([]core.Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.Clone()
	}
	return out
}

// Sorted returns the categories by percentage descending, the order used by
// management views.
func (c *Catalog) Sorted() []core.Category {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// Get returns the category with id.
func (c *Catalog) Get(id string) (core.Category, bool) {
	if i := c.index(id); i >= 0 {
		return c.categories[i].Clone(), true
	}
	return core.Category{}, false
}

// Replace swaps the whole list, e.g. after an import or a goals save.
func (c *Catalog) Replace(categories []core.Category) {
	c.categories = make([]core.Category, len(categories))
	for i, cat := range categories {
		cat = cat.Clone()
		if cat.Subcategories == nil {
			cat.Subcategories = []core.Subcategory{}
		}
		c.categories[i] = cat
	}
}

// Add appends a user-defined category. Percentage validation is the caller's
// job (see ValidateBudgetTotal).
func (c *Catalog) Add(in CategoryInput) core.Category {
	cat := core.Category{
		ID:            "cat_" + uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Color:         in.Color,
		Percentage:    in.Percentage,
		Subcategories: []core.Subcategory{},
		IsCustom:      true,
	}
	c.categories = append(c.categories, cat)
	return cat.Clone()
}

// Update merges patch into the category with id.
func (c *Catalog) Update(id string, patch CategoryPatch) (core.Category, error) {
	i := c.index(id)
	if i < 0 {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, core.ErrCategoryNotFound)
	}
	cat := c.categories[i].Clone()
	if patch.Name != nil {
		cat.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		cat.Color = *patch.Color
	}
	if patch.Percentage != nil {
		cat.Percentage = *patch.Percentage
	}
	if patch.IsArchived != nil {
		cat.IsArchived = *patch.IsArchived
	}
	c.categories[i] = cat
	return cat.Clone(), nil
}

// Delete removes a category that no stored month refers to.
func (c *Catalog) Delete(id string, usage UsageChecker) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryNotFound)
	}
	if usage != nil && usage.CategoryUsed(id) {
		return core.ErrCategoryHasHistory
	}
	if c.categories[i].HasSubcategoryValue() {
		return core.ErrCategorySubcategoryValue
	}
	c.categories = append(c.categories[:i:i], c.categories[i+1:]...)
	return nil
}

// ValidateBudgetTotal reports whether the percentages of every category except
// excludeID plus newPercentage stay within 100.
func (c *Catalog) ValidateBudgetTotal(newPercentage float64, excludeID string) bool {
	return c.TotalPercentage(excludeID)+newPercentage <= 100
}

// TotalPercentage sums the percentages, skipping excludeID.
func (c *Catalog) TotalPercentage(excludeID string) float64 {
	var total float64
	for _, cat := range c.categories {
		if cat.ID != excludeID {
			total += cat.Percentage
		}
	}
	return total
}

// Reset restores the six default categories.
func (c *Catalog) Reset() {
	c.categories = DefaultCategories()
}

// AddSubcategory attaches a fixed-value subcategory to a category.
func (c *Catalog) AddSubcategory(categoryID, name string, value core.Money) (core.Subcategory, error) {
	i := c.index(categoryID)
	if i < 0 {
		return core.Subcategory{}, fmt.Errorf("add subcategory to %s: %w", categoryID, core.ErrCategoryNotFound)
	}
	sub := core.Subcategory{
		ID:    "sub_" + uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Value: value,
	}
	cat := c.categories[i].Clone()
	cat.Subcategories = append(cat.Subcategories, sub)
	c.categories[i] = cat
	return sub, nil
}

// UpdateSubcategory merges patch into one subcategory.
func (c *Catalog) UpdateSubcategory(categoryID, subID string, patch SubcategoryPatch) (core.Subcategory, error) {
	i := c.index(categoryID)
	if i < 0 {
		return core.Subcategory{}, fmt.Errorf("update subcategory of %s: %w", categoryID, core.ErrCategoryNotFound)
	}
	cat := c.categories[i].Clone()
	for j := range cat.Subcategories {
		if cat.Subcategories[j].ID != subID {
			continue
		}
		if patch.Name != nil {
			cat.Subcategories[j].Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Value != nil {
			cat.Subcategories[j].Value = *patch.Value
		}
		c.categories[i] = cat
		return cat.Subcategories[j], nil
	}
	return core.Subcategory{}, fmt.Errorf("update subcategory %s: %w", subID, core.ErrNotFound)
}

// RemoveSubcategory drops a subcategory. There is no history guard: the
// month snapshots already hold what it contributed.
func (c *Catalog) RemoveSubcategory(categoryID, subID string) error {
	i := c.index(categoryID)
	if i < 0 {
		return fmt.Errorf("remove subcategory of %s: %w", categoryID, core.ErrCategoryNotFound)
	}
	cat := c.categories[i].Clone()
	kept := cat.Subcategories[:0]
	found := false
	for _, s := range cat.Subcategories {
		if s.ID == subID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return fmt.Errorf("remove subcategory %s: %w", subID, core.ErrNotFound)
	}
	cat.Subcategories = kept
	c.categories[i] = cat
	return nil
}

func (c *Catalog) index(id string) int {
	for i, cat := range c.categories {
		if cat.ID == id {
			return i
		}
	}
	return -1
}
