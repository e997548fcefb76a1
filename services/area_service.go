package services

import (
	"context"
	"errors"
	"strings"

	"github.com/escolarhq/academico-api/model"
	"github.com/escolarhq/academico-api/utils/apperrors"
	"gorm.io/gorm"
)

// AreaService manages knowledge areas, the thematic groupings of subjects
type AreaService struct {
	db *gorm.DB
}

// NewAreaService creates a new knowledge area service
func NewAreaService(db *gorm.DB) *AreaService {
	return &AreaService{db: db}
}

// AreaInput carries the fields for creating or updating a knowledge area
type AreaInput struct {
	Name      string
	Color     string
	SortOrder int
}

// Create inserts a new knowledge area with a unique name
func (s *AreaService) Create(ctx context.Context, input AreaInput) (*model.KnowledgeArea, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Message: "area name is required"}
	}

	area := model.KnowledgeArea{
		Name:      name,
		Color:     input.Color,
		SortOrder: input.SortOrder,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.KnowledgeArea{}).
			Where("LOWER(name) = LOWER(?)", name).
			Count(&cnt).Error; err != nil {
			return apperrors.Storage("area name check", err)
		}
		if cnt > 0 {
			return &apperrors.ConflictError{Constraint: "area_name", Message: "knowledge area name already in use"}
		}

		if err := tx.Create(&area).Error; err != nil {
			return apperrors.Storage("area insert", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &area, nil
}

// List returns all knowledge areas ordered by their sort order
func (s *AreaService) List(ctx context.Context) ([]model.KnowledgeArea, error) {
	var areas []model.KnowledgeArea
	if err := s.db.WithContext(ctx).
		Order("sort_order ASC, name ASC").
		Find(&areas).Error; err != nil {
		return nil, apperrors.Storage("area list", err)
	}
	return areas, nil
}

// Update replaces the mutable fields of a knowledge area
func (s *AreaService) Update(ctx context.Context, id uint, input AreaInput) (*model.KnowledgeArea, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Message: "area name is required"}
	}

	var area model.KnowledgeArea
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&area, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "knowledge area", ID: id}
			}
			return apperrors.Storage("area fetch", err)
		}

		var cnt int64
		if err := tx.Model(&model.KnowledgeArea{}).
			Where("LOWER(name) = LOWER(?) AND id <> ?", name, id).
			Count(&cnt).Error; err != nil {
			return apperrors.Storage("area name check", err)
		}
		if cnt > 0 {
			return &apperrors.ConflictError{Constraint: "area_name", Message: "knowledge area name already in use"}
		}

		patch := map[string]interface{}{
			"name":       name,
			"color":      input.Color,
			"sort_order": input.SortOrder,
		}
		if err := tx.Model(&area).Updates(patch).Error; err != nil {
			return apperrors.Storage("area update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &area, nil
}

// Delete removes a knowledge area. Blocked while any non-deleted subject
// still references it.
func (s *AreaService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var area model.KnowledgeArea
		if err := tx.First(&area, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "knowledge area", ID: id}
			}
			return apperrors.Storage("area fetch", err)
		}

		var refs int64
		if err := tx.Model(&model.Subject{}).Where("area_id = ?", id).Count(&refs).Error; err != nil {
			return apperrors.Storage("subject reference check", err)
		}
		if refs > 0 {
			return &apperrors.ConflictError{Constraint: "area_subjects", Message: "knowledge area has subjects assigned"}
		}

		if err := tx.Delete(&area).Error; err != nil {
			return apperrors.Storage("area delete", err)
		}
		return nil
	})
}
