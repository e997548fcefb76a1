package services

import (
	"context"
	"errors"
	"strings"

	"github.com/escolarhq/academico-api/model"
	"github.com/escolarhq/academico-api/utils/apperrors"
	"gorm.io/gorm"
)

// SubjectCatalogService owns the subject catalog: creation, listing,
// updates and soft deletion of subjects.
type SubjectCatalogService struct {
	db *gorm.DB
}

// NewSubjectCatalogService creates a new subject catalog service
func NewSubjectCatalogService(db *gorm.DB) *SubjectCatalogService {
	return &SubjectCatalogService{db: db}
}

// CreateSubjectInput carries the fields for a new subject
type CreateSubjectInput struct {
	Code        string
	Name        string
	AreaID      *uint
	WeeklyHours int
	Credits     int
	IsMandatory bool
	HasLab      bool
	Active      bool
}

// UpdateSubjectInput is a full replacement of the mutable subject fields.
// Code is the immutable business key and cannot be changed.
type UpdateSubjectInput struct {
	Name        string
	AreaID      *uint
	WeeklyHours int
	Credits     int
	IsMandatory bool
	HasLab      bool
	Active      bool
}

// SubjectFilters narrows and pages the catalog listing
type SubjectFilters struct {
	Page        int
	PageSize    int
	Search      string
	AreaID      *uint
	Active      *bool
	IsMandatory *bool
}

// SubjectRow is one catalog listing entry, joined with its area and the
// number of grades the subject is assigned to.
type SubjectRow struct {
	ID          uint    `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	AreaID      *uint   `json:"area_id"`
	WeeklyHours int     `json:"weekly_hours"`
	Credits     int     `json:"credits"`
	IsMandatory bool    `json:"is_mandatory"`
	HasLab      bool    `json:"has_lab"`
	Active      bool    `json:"active"`
	AreaName    *string `json:"area_name"`
	AreaColor   *string `json:"area_color"`
	GradeCount  int64   `json:"grade_count"`
}

// PrerequisiteRef is the compact subject reference attached to
// GetWithPrerequisites results.
type PrerequisiteRef struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// SubjectWithPrerequisites is a subject plus its direct prerequisites
type SubjectWithPrerequisites struct {
	model.Subject
	Prerequisites []PrerequisiteRef `json:"prerequisites"`
}

// Create inserts a new subject. The code must not be in use by any
// non-deleted subject.
func (s *SubjectCatalogService) Create(ctx context.Context, input CreateSubjectInput) (*model.Subject, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, &apperrors.ValidationError{Field: "code", Message: "subject code is required"}
	}
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Message: "subject name is required"}
	}

	subject := model.Subject{
		Code:        code,
		Name:        name,
		AreaID:      input.AreaID,
		WeeklyHours: input.WeeklyHours,
		Credits:     input.Credits,
		IsMandatory: input.IsMandatory,
		HasLab:      input.HasLab,
		Active:      input.Active,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Duplicate code check ignores soft-deleted subjects, so a retired
		// code can be reused.
		var cnt int64
		if err := tx.Model(&model.Subject{}).
			Where("LOWER(code) = LOWER(?)", code).
			Count(&cnt).Error; err != nil {
			return apperrors.Storage("subject code check", err)
		}
		if cnt > 0 {
			return &apperrors.ConflictError{Constraint: "subject_code", Message: "subject code already in use"}
		}

		if input.AreaID != nil {
			var areaCnt int64
			if err := tx.Model(&model.KnowledgeArea{}).Where("id = ?", *input.AreaID).Count(&areaCnt).Error; err != nil {
				return apperrors.Storage("area check", err)
			}
			if areaCnt == 0 {
				return &apperrors.NotFoundError{Resource: "knowledge area", ID: *input.AreaID}
			}
		}

		if err := tx.Create(&subject).Error; err != nil {
			return apperrors.Storage("subject insert", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &subject, nil
}

// List returns one page of the catalog ordered by (area order, subject name),
// with area metadata and per-subject grade assignment counts.
func (s *SubjectCatalogService) List(ctx context.Context, filters SubjectFilters) ([]SubjectRow, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Subject{}).
		Joins("LEFT JOIN knowledge_areas ON knowledge_areas.id = subjects.area_id")

	if filters.Search != "" {
		kw := "%" + strings.ToLower(strings.TrimSpace(filters.Search)) + "%"
		query = query.Where("(LOWER(subjects.name) LIKE ? OR LOWER(subjects.code) LIKE ?)", kw, kw)
	}
	if filters.AreaID != nil {
		query = query.Where("subjects.area_id = ?", *filters.AreaID)
	}
	if filters.Active != nil {
		query = query.Where("subjects.active = ?", *filters.Active)
	}
	if filters.IsMandatory != nil {
		query = query.Where("subjects.is_mandatory = ?", *filters.IsMandatory)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage("subject count", err)
	}

	offset := (filters.Page - 1) * filters.PageSize

	var rows []SubjectRow
	if err := query.
		Select(`subjects.id,
			subjects.code,
			subjects.name,
			subjects.area_id,
			subjects.weekly_hours,
			subjects.credits,
			subjects.is_mandatory,
			subjects.has_lab,
			subjects.active,
			knowledge_areas.name AS area_name,
			knowledge_areas.color AS area_color,
			(SELECT COUNT(*) FROM grade_subjects WHERE grade_subjects.subject_id = subjects.id) AS grade_count`).
		Order("COALESCE(knowledge_areas.sort_order, 2147483647) ASC, subjects.name ASC").
		Limit(filters.PageSize).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, apperrors.Storage("subject list", err)
	}

	return rows, total, nil
}

// GetByID returns a subject, or NotFoundError when missing or soft-deleted
func (s *SubjectCatalogService) GetByID(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "subject", ID: id}
		}
		return nil, apperrors.Storage("subject fetch", err)
	}
	return &subject, nil
}

// GetWithPrerequisites returns a subject with its direct prerequisites
// (non-deleted only), ordered by name.
func (s *SubjectCatalogService) GetWithPrerequisites(ctx context.Context, id uint) (*SubjectWithPrerequisites, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var prereqs []PrerequisiteRef
	if err := s.db.WithContext(ctx).Model(&model.Subject{}).
		Select("subjects.id, subjects.code, subjects.name").
		Joins("JOIN subject_prerequisites ON subject_prerequisites.prerequisite_id = subjects.id").
		Where("subject_prerequisites.subject_id = ?", id).
		Order("subjects.name ASC").
		Scan(&prereqs).Error; err != nil {
		return nil, apperrors.Storage("prerequisite list", err)
	}

	return &SubjectWithPrerequisites{Subject: *subject, Prerequisites: prereqs}, nil
}

// Update replaces the mutable fields of a subject
func (s *SubjectCatalogService) Update(ctx context.Context, id uint, input UpdateSubjectInput) (*model.Subject, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Message: "subject name is required"}
	}

	var subject model.Subject
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&subject, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "subject", ID: id}
			}
			return apperrors.Storage("subject fetch", err)
		}

		if input.AreaID != nil {
			var areaCnt int64
			if err := tx.Model(&model.KnowledgeArea{}).Where("id = ?", *input.AreaID).Count(&areaCnt).Error; err != nil {
				return apperrors.Storage("area check", err)
			}
			if areaCnt == 0 {
				return &apperrors.NotFoundError{Resource: "knowledge area", ID: *input.AreaID}
			}
		}

		// Explicit column map so false/zero values are written too
		patch := map[string]interface{}{
			"name":         name,
			"area_id":      input.AreaID,
			"weekly_hours": input.WeeklyHours,
			"credits":      input.Credits,
			"is_mandatory": input.IsMandatory,
			"has_lab":      input.HasLab,
			"active":       input.Active,
		}
		if err := tx.Model(&subject).Updates(patch).Error; err != nil {
			return apperrors.Storage("subject update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &subject, nil
}

// SoftDelete marks a subject deleted. A subject still assigned to any grade
// cannot be deleted.
func (s *SubjectCatalogService) SoftDelete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject model.Subject
		if err := tx.First(&subject, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "subject", ID: id}
			}
			return apperrors.Storage("subject fetch", err)
		}

		var refs int64
		if err := tx.Model(&model.GradeSubject{}).Where("subject_id = ?", id).Count(&refs).Error; err != nil {
			return apperrors.Storage("assignment check", err)
		}
		if refs > 0 {
			return &apperrors.ConflictError{Constraint: "subject_assignments", Message: "subject is assigned to grades"}
		}

		// Prerequisite edges referencing the subject are left in storage;
		// listings filter them out by joining against non-deleted subjects.
		if err := tx.Delete(&subject).Error; err != nil {
			return apperrors.Storage("subject delete", err)
		}
		return nil
	})
}
