package rfps

import (
	"context"
	"strings"

	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"
)

// ListCategories returns all categories by name.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory adds a category. Names are unique.
func (s *Service) CreateCategory(ctx context.Context, name string, description *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidCategory
	}
	c := &domain.Category{Name: name, Description: trimmedOrNil(description)}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return c, nil
}
