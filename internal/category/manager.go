package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/service"
)

// GeneralSuffix is appended to a new category's name to form its default
// subcategory.
const GeneralSuffix = " (General)"

// Manager performs taxonomy mutations. Callers holding a Cache must refresh
// it afterwards.
type Manager struct {
	store service.CategoryStore
}

// NewManager creates a manager over store.
func NewManager(store service.CategoryStore) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &Manager{store: store}, nil
}

// GeneralSubcategory names the default subcategory created with a category.
func GeneralSubcategory(category string) string {
	return category + GeneralSuffix
}

// Seed inserts every pair of taxonomy that is not stored yet and returns how
// many were added. Categories without subcategories get their general one.
func (m *Manager) Seed(ctx context.Context, taxonomy model.Taxonomy) (int, error) {
	added := 0
	for _, category := range taxonomy.Categories() {
		subcategories := taxonomy.Subcategories(category)
		if len(subcategories) == 0 {
			subcategories = []string{GeneralSubcategory(category)}
		}

		for _, subcategory := range subcategories {
			inserted, err := m.store.InsertCategoryPair(ctx, category, subcategory)
			if err != nil {
				return added, fmt.Errorf("failed to seed %s/%s: %w", category, subcategory, err)
			}
			if inserted {
				added++
			}
		}
	}

	if added > 0 {
		slog.Info("🌱 Seeded categories", "pairs", added)
	}
	return added, nil
}

// AddCategory creates a category together with its general subcategory.
func (m *Manager) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptyCategoryName)
	}

	taxonomy, err := m.store.GetTaxonomy(ctx)
	if err != nil {
		return err
	}
	if taxonomy.HasCategory(name) {
		return fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
	}

	if _, err := m.store.InsertCategoryPair(ctx, name, GeneralSubcategory(name)); err != nil {
		return fmt.Errorf("failed to add category %q: %w", name, err)
	}

	slog.Info("Added category", "category", name)
	return nil
}

// AddSubcategory adds a subcategory under an existing category.
func (m *Manager) AddSubcategory(ctx context.Context, category, subcategory string) error {
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if category == "" {
		return fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptyCategoryName)
	}
	if subcategory == "" {
		return fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptySubcategoryName)
	}

	taxonomy, err := m.store.GetTaxonomy(ctx)
	if err != nil {
		return err
	}
	if !taxonomy.HasCategory(category) {
		return fmt.Errorf("category %q: %w", category, common.ErrNotFound)
	}

	inserted, err := m.store.InsertCategoryPair(ctx, category, subcategory)
	if err != nil {
		return fmt.Errorf("failed to add subcategory %q: %w", subcategory, err)
	}
	if !inserted {
		return fmt.Errorf("subcategory %s/%s: %w", category, subcategory, common.ErrDuplicateEntry)
	}

	slog.Info("Added subcategory", "category", category, "subcategory", subcategory)
	return nil
}

// RenameCategory renames a category and every record filed under it.
func (m *Manager) RenameCategory(ctx context.Context, oldName, newName string) error {
	if err := m.store.RenameCategory(ctx, oldName, newName); err != nil {
		return err
	}
	slog.Info("Renamed category", "from", oldName, "to", newName)
	return nil
}

// RenameSubcategory renames a subcategory and every record filed under it.
func (m *Manager) RenameSubcategory(ctx context.Context, category, oldName, newName string) error {
	if err := m.store.RenameSubcategory(ctx, category, oldName, newName); err != nil {
		return err
	}
	slog.Info("Renamed subcategory", "category", category, "from", oldName, "to", newName)
	return nil
}

// DeleteCategory removes a category and its subcategories. It returns false
// without deleting anything when expenses or estimates still use it.
func (m *Manager) DeleteCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptyCategoryName)
	}

	uses, err := m.store.CountCategoryUsage(ctx, name)
	if err != nil {
		return false, err
	}
	if uses > 0 {
		slog.Debug("Category in use, not deleting", "category", name, "uses", uses)
		return false, nil
	}

	if err := m.store.DeleteCategory(ctx, name); err != nil {
		return false, err
	}
	slog.Info("Deleted category", "category", name)
	return true, nil
}

// DeleteSubcategory removes one pair. It returns false without deleting
// anything when expenses or estimates still use it.
func (m *Manager) DeleteSubcategory(ctx context.Context, category, subcategory string) (bool, error) {
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if category == "" {
		return false, fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptyCategoryName)
	}
	if subcategory == "" {
		return false, fmt.Errorf("%w: %w", common.ErrInvalidCategory, model.ErrEmptySubcategoryName)
	}

	uses, err := m.store.CountSubcategoryUsage(ctx, category, subcategory)
	if err != nil {
		return false, err
	}
	if uses > 0 {
		slog.Debug("Subcategory in use, not deleting",
			"category", category, "subcategory", subcategory, "uses", uses)
		return false, nil
	}

	if err := m.store.DeleteSubcategory(ctx, category, subcategory); err != nil {
		return false, err
	}
	slog.Info("Deleted subcategory", "category", category, "subcategory", subcategory)
	return true, nil
}
