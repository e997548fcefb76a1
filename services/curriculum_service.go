package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/escolarhq/academico-api/database"
	"github.com/escolarhq/academico-api/model"
	"github.com/escolarhq/academico-api/utils/apperrors"
	"github.com/escolarhq/academico-api/utils/cache"
	"gorm.io/gorm"
)

// Cache keys for the grouped curriculum overview. Both are deleted after
// every committed curriculum mutation, so stale payloads never outlive the
// transaction that invalidated them.
const (
	overviewCacheKeyAll    = "curriculum:overview:all"
	overviewCacheKeyActive = "curriculum:overview:active"
	overviewCacheTTL       = 10 * time.Minute
)

// CurriculumService owns grade-subject assignments: creation, listing,
// updates, removal and the atomic per-grade reorder.
type CurriculumService struct {
	db    *gorm.DB
	cache *cache.RedisCache // optional; nil disables the overview cache
}

// NewCurriculumService creates a new curriculum service
func NewCurriculumService(db *gorm.DB, redisCache *cache.RedisCache) *CurriculumService {
	return &CurriculumService{db: db, cache: redisCache}
}

// AssignSubjectInput carries the fields for a new grade-subject assignment
type AssignSubjectInput struct {
	GradeID          uint
	SubjectID        uint
	Position         int // 0 appends after the grade's current last position
	Active           *bool
	MinPassingGrade  *float64
	WeightPercentage *float64
}

// UpdateAssignmentInput patches an assignment; nil fields are untouched
type UpdateAssignmentInput struct {
	Position         *int
	Active           *bool
	MinPassingGrade  *float64
	WeightPercentage *float64
}

// CurriculumEntry is one assignment joined with its subject and area columns
type CurriculumEntry struct {
	AssignmentID     uint     `json:"assignment_id"`
	SubjectID        uint     `json:"subject_id"`
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Position         int      `json:"order"`
	Active           bool     `json:"active"`
	MinPassingGrade  float64  `json:"min_passing_grade"`
	WeightPercentage *float64 `json:"weight_percentage"`
	WeeklyHours      int      `json:"weekly_hours"`
	Credits          int      `json:"credits"`
	IsMandatory      bool     `json:"is_mandatory"`
	HasLab           bool     `json:"has_lab"`
	AreaName         *string  `json:"area_name"`
	AreaColor        *string  `json:"area_color"`
}

// GradeCurriculum groups one grade's assignments with its level metadata
type GradeCurriculum struct {
	GradeID    uint              `json:"grade_id"`
	GradeName  string            `json:"grade_name"`
	GradeOrder int               `json:"grade_order"`
	LevelID    uint              `json:"level_id"`
	LevelName  string            `json:"level_name"`
	LevelOrder int               `json:"level_order"`
	Subjects   []CurriculumEntry `json:"subjects"`
}

// Assign binds a subject to a grade. The pair must not already exist; the
// existence check and the insert share one transaction.
func (s *CurriculumService) Assign(ctx context.Context, input AssignSubjectInput) (*model.GradeSubject, error) {
	var assignment model.GradeSubject

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.AdvisoryXactLock(tx, database.LockClassCurriculum, int32(input.GradeID)); err != nil {
			return apperrors.Storage("curriculum lock", err)
		}

		var gradeCnt int64
		if err := tx.Model(&model.Grade{}).Where("id = ?", input.GradeID).Count(&gradeCnt).Error; err != nil {
			return apperrors.Storage("grade check", err)
		}
		if gradeCnt == 0 {
			return &apperrors.NotFoundError{Resource: "grade", ID: input.GradeID}
		}

		var subjectCnt int64
		if err := tx.Model(&model.Subject{}).Where("id = ?", input.SubjectID).Count(&subjectCnt).Error; err != nil {
			return apperrors.Storage("subject check", err)
		}
		if subjectCnt == 0 {
			return &apperrors.NotFoundError{Resource: "subject", ID: input.SubjectID}
		}

		// Explicit pair check rather than relying on the unique index, so
		// the caller gets a friendly conflict instead of a driver error.
		var dup int64
		if err := tx.Model(&model.GradeSubject{}).
			Where("grade_id = ? AND subject_id = ?", input.GradeID, input.SubjectID).
			Count(&dup).Error; err != nil {
			return apperrors.Storage("assignment check", err)
		}
		if dup > 0 {
			return &apperrors.ConflictError{Constraint: "grade_subject_pair", Message: "subject already assigned to this grade"}
		}

		position := input.Position
		if position <= 0 {
			var maxPos int
			row := tx.Model(&model.GradeSubject{}).
				Where("grade_id = ?", input.GradeID).
				Select("COALESCE(MAX(position), 0)").
				Row()
			if err := row.Scan(&maxPos); err != nil {
				return apperrors.Storage("position lookup", err)
			}
			position = maxPos + 1
		}

		active := true
		if input.Active != nil {
			active = *input.Active
		}
		minPassing := model.DefaultMinPassingGrade
		if input.MinPassingGrade != nil {
			minPassing = *input.MinPassingGrade
		}

		assignment = model.GradeSubject{
			GradeID:          input.GradeID,
			SubjectID:        input.SubjectID,
			Position:         position,
			Active:           active,
			MinPassingGrade:  minPassing,
			WeightPercentage: input.WeightPercentage,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return apperrors.Storage("assignment insert", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOverview(ctx)
	return &assignment, nil
}

// ListByGrade returns a grade's assignments joined with subject and area
// columns, non-deleted subjects only, ordered by (position, subject name).
// activeFilter, when set, filters on the assignment's active flag.
func (s *CurriculumService) ListByGrade(ctx context.Context, gradeID uint, activeFilter *bool) ([]CurriculumEntry, error) {
	var gradeCnt int64
	if err := s.db.WithContext(ctx).Model(&model.Grade{}).Where("id = ?", gradeID).Count(&gradeCnt).Error; err != nil {
		return nil, apperrors.Storage("grade check", err)
	}
	if gradeCnt == 0 {
		return nil, &apperrors.NotFoundError{Resource: "grade", ID: gradeID}
	}

	query := s.db.WithContext(ctx).Table("grade_subjects").
		Select(`grade_subjects.id AS assignment_id,
			grade_subjects.subject_id,
			subjects.code,
			subjects.name,
			grade_subjects.position,
			grade_subjects.active,
			grade_subjects.min_passing_grade,
			grade_subjects.weight_percentage,
			subjects.weekly_hours,
			subjects.credits,
			subjects.is_mandatory,
			subjects.has_lab,
			knowledge_areas.name AS area_name,
			knowledge_areas.color AS area_color`).
		Joins("JOIN subjects ON subjects.id = grade_subjects.subject_id AND subjects.deleted_at IS NULL").
		Joins("LEFT JOIN knowledge_areas ON knowledge_areas.id = subjects.area_id").
		Where("grade_subjects.grade_id = ?", gradeID)

	if activeFilter != nil {
		query = query.Where("grade_subjects.active = ?", *activeFilter)
	}

	var entries []CurriculumEntry
	if err := query.
		Order("grade_subjects.position ASC, subjects.name ASC").
		Scan(&entries).Error; err != nil {
		return nil, apperrors.Storage("curriculum list", err)
	}
	return entries, nil
}

// assignmentRow is the flat join row ListAllGroupedByGrade groups from
type assignmentRow struct {
	CurriculumEntry
	GradeID    uint
	GradeName  string
	GradeOrder int
	LevelID    uint
	LevelName  string
	LevelOrder int
}

// ListAllGroupedByGrade returns every assignment across all grades, one
// record per grade, grade groups ordered by (level order, grade order).
// When activeOnly is set, only active assignments of active subjects are
// included. Results are served from the overview cache when possible.
func (s *CurriculumService) ListAllGroupedByGrade(ctx context.Context, activeOnly bool) ([]GradeCurriculum, error) {
	cacheKey := overviewCacheKeyAll
	if activeOnly {
		cacheKey = overviewCacheKeyActive
	}

	if s.cache != nil {
		var cached []GradeCurriculum
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	query := s.db.WithContext(ctx).Table("grade_subjects").
		Select(`grade_subjects.id AS assignment_id,
			grade_subjects.subject_id,
			subjects.code,
			subjects.name,
			grade_subjects.position,
			grade_subjects.active,
			grade_subjects.min_passing_grade,
			grade_subjects.weight_percentage,
			subjects.weekly_hours,
			subjects.credits,
			subjects.is_mandatory,
			subjects.has_lab,
			knowledge_areas.name AS area_name,
			knowledge_areas.color AS area_color,
			grades.id AS grade_id,
			grades.name AS grade_name,
			grades.sort_order AS grade_order,
			levels.id AS level_id,
			levels.name AS level_name,
			levels.sort_order AS level_order`).
		Joins("JOIN subjects ON subjects.id = grade_subjects.subject_id AND subjects.deleted_at IS NULL").
		Joins("JOIN grades ON grades.id = grade_subjects.grade_id AND grades.deleted_at IS NULL").
		Joins("JOIN levels ON levels.id = grades.level_id AND levels.deleted_at IS NULL").
		Joins("LEFT JOIN knowledge_areas ON knowledge_areas.id = subjects.area_id")

	if activeOnly {
		query = query.Where("grade_subjects.active = ? AND subjects.active = ?", true, true)
	}

	var rows []assignmentRow
	if err := query.
		Order("levels.sort_order ASC, grades.sort_order ASC, grade_subjects.position ASC, subjects.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Storage("curriculum overview", err)
	}

	// Group rows per grade, preserving query order
	grouped := make([]GradeCurriculum, 0)
	index := make(map[uint]int)
	for _, row := range rows {
		i, ok := index[row.GradeID]
		if !ok {
			grouped = append(grouped, GradeCurriculum{
				GradeID:    row.GradeID,
				GradeName:  row.GradeName,
				GradeOrder: row.GradeOrder,
				LevelID:    row.LevelID,
				LevelName:  row.LevelName,
				LevelOrder: row.LevelOrder,
				Subjects:   []CurriculumEntry{},
			})
			i = len(grouped) - 1
			index[row.GradeID] = i
		}
		grouped[i].Subjects = append(grouped[i].Subjects, row.CurriculumEntry)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, grouped, overviewCacheTTL); err != nil {
			log.Printf("Warning: failed to cache curriculum overview: %v", err)
		}
	}

	return grouped, nil
}

// Update patches an assignment's position, active flag, passing threshold or
// weight percentage.
func (s *CurriculumService) Update(ctx context.Context, id uint, input UpdateAssignmentInput) (*model.GradeSubject, error) {
	var assignment model.GradeSubject

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&assignment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "assignment", ID: id}
			}
			return apperrors.Storage("assignment fetch", err)
		}

		patch := map[string]interface{}{}
		if input.Position != nil {
			patch["position"] = *input.Position
		}
		if input.Active != nil {
			patch["active"] = *input.Active
		}
		if input.MinPassingGrade != nil {
			patch["min_passing_grade"] = *input.MinPassingGrade
		}
		if input.WeightPercentage != nil {
			patch["weight_percentage"] = *input.WeightPercentage
		}
		if len(patch) == 0 {
			return nil
		}

		if err := tx.Model(&assignment).Updates(patch).Error; err != nil {
			return apperrors.Storage("assignment update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOverview(ctx)
	return &assignment, nil
}

// Remove deletes an assignment and returns the deleted row
func (s *CurriculumService) Remove(ctx context.Context, id uint) (*model.GradeSubject, error) {
	var assignment model.GradeSubject

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&assignment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperrors.NotFoundError{Resource: "assignment", ID: id}
			}
			return apperrors.Storage("assignment fetch", err)
		}

		if err := tx.Delete(&assignment).Error; err != nil {
			return apperrors.Storage("assignment delete", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOverview(ctx)
	return &assignment, nil
}

// Exists reports whether an assignment exists for the (grade, subject) pair
func (s *CurriculumService) Exists(ctx context.Context, gradeID, subjectID uint) (bool, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&model.GradeSubject{}).
		Where("grade_id = ? AND subject_id = ?", gradeID, subjectID).
		Count(&cnt).Error; err != nil {
		return false, apperrors.Storage("assignment check", err)
	}
	return cnt > 0, nil
}

// Reorder rewrites the position of each listed subject's assignment to its
// 1-based index, in one transaction serialized per grade. Listed subjects
// without an assignment are silent no-ops; assignments not listed keep their
// previous position, even when that leaves duplicate position values. Display
// queries break ties on subject name.
func (s *CurriculumService) Reorder(ctx context.Context, gradeID uint, orderedSubjectIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.AdvisoryXactLock(tx, database.LockClassCurriculum, int32(gradeID)); err != nil {
			return apperrors.Storage("curriculum lock", err)
		}

		var gradeCnt int64
		if err := tx.Model(&model.Grade{}).Where("id = ?", gradeID).Count(&gradeCnt).Error; err != nil {
			return apperrors.Storage("grade check", err)
		}
		if gradeCnt == 0 {
			return &apperrors.NotFoundError{Resource: "grade", ID: gradeID}
		}

		for i, subjectID := range orderedSubjectIDs {
			if err := tx.Model(&model.GradeSubject{}).
				Where("grade_id = ? AND subject_id = ?", gradeID, subjectID).
				Update("position", i+1).Error; err != nil {
				return apperrors.Storage("position rewrite", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateOverview(ctx)
	return nil
}

// invalidateOverview drops the cached overview payloads after a committed
// mutation. Cache trouble is logged, never surfaced: the store already holds
// the truth.
func (s *CurriculumService) invalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, overviewCacheKeyAll, overviewCacheKeyActive); err != nil {
		log.Printf("Warning: failed to invalidate curriculum overview cache: %v", err)
	}
}
