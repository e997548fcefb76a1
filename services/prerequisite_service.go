package services

import (
	"context"

	"github.com/escolarhq/academico-api/database"
	"github.com/escolarhq/academico-api/model"
	"github.com/escolarhq/academico-api/utils/apperrors"
	"gorm.io/gorm"
)

// PrerequisiteService maintains the directed "requires" edges between
// subjects and keeps the graph acyclic.
type PrerequisiteService struct {
	db *gorm.DB
}

// NewPrerequisiteService creates a new prerequisite graph service
func NewPrerequisiteService(db *gorm.DB) *PrerequisiteService {
	return &PrerequisiteService{db: db}
}

// AddPrerequisite registers prerequisiteID as a direct requirement of
// subjectID. The closure check and the insert run in one transaction,
// serialized by an advisory lock, so two concurrent inserts cannot combine
// into a cycle that neither would have created alone.
func (s *PrerequisiteService) AddPrerequisite(ctx context.Context, subjectID, prerequisiteID uint) error {
	if subjectID == prerequisiteID {
		return &apperrors.ValidationError{Field: "prerequisite_id", Message: "a subject cannot be its own prerequisite"}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.AdvisoryXactLock(tx, database.LockClassPrerequisites, 0); err != nil {
			return apperrors.Storage("prerequisite lock", err)
		}

		for _, id := range []uint{subjectID, prerequisiteID} {
			var cnt int64
			if err := tx.Model(&model.Subject{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
				return apperrors.Storage("subject check", err)
			}
			if cnt == 0 {
				return &apperrors.NotFoundError{Resource: "subject", ID: id}
			}
		}

		var dup int64
		if err := tx.Model(&model.SubjectPrerequisite{}).
			Where("subject_id = ? AND prerequisite_id = ?", subjectID, prerequisiteID).
			Count(&dup).Error; err != nil {
			return apperrors.Storage("duplicate edge check", err)
		}
		if dup > 0 {
			return &apperrors.ConflictError{Constraint: "prerequisite_edge", Message: "prerequisite already registered"}
		}

		// The new edge closes a cycle exactly when subjectID already sits in
		// the forward closure of the candidate prerequisite: the path
		// subjectID -> prerequisiteID -> ... -> subjectID would exist.
		closure, err := forwardClosure(tx, prerequisiteID)
		if err != nil {
			return err
		}
		if closure[subjectID] {
			return &apperrors.CycleError{SubjectID: subjectID, PrerequisiteID: prerequisiteID}
		}

		edge := model.SubjectPrerequisite{SubjectID: subjectID, PrerequisiteID: prerequisiteID}
		if err := tx.Create(&edge).Error; err != nil {
			return apperrors.Storage("edge insert", err)
		}
		return nil
	})
}

// forwardClosure walks "requires" edges outward from start until no new
// subjects appear, returning every subject start directly or transitively
// requires (start included).
func forwardClosure(tx *gorm.DB, start uint) (map[uint]bool, error) {
	visited := map[uint]bool{start: true}
	frontier := []uint{start}

	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&model.SubjectPrerequisite{}).
			Where("subject_id IN ?", frontier).
			Pluck("prerequisite_id", &next).Error; err != nil {
			return nil, apperrors.Storage("closure traversal", err)
		}

		frontier = nil
		for _, id := range next {
			if !visited[id] {
				visited[id] = true
				frontier = append(frontier, id)
			}
		}
	}

	return visited, nil
}

// RemovePrerequisite deletes the edge if present. Removing an absent edge is
// a no-op, not an error.
func (s *PrerequisiteService) RemovePrerequisite(ctx context.Context, subjectID, prerequisiteID uint) error {
	if err := s.db.WithContext(ctx).
		Where("subject_id = ? AND prerequisite_id = ?", subjectID, prerequisiteID).
		Delete(&model.SubjectPrerequisite{}).Error; err != nil {
		return apperrors.Storage("edge delete", err)
	}
	return nil
}

// ListPrerequisites returns the direct prerequisite subjects of subjectID
// (non-deleted only), ordered by name.
func (s *PrerequisiteService) ListPrerequisites(ctx context.Context, subjectID uint) ([]model.Subject, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&model.Subject{}).Where("id = ?", subjectID).Count(&cnt).Error; err != nil {
		return nil, apperrors.Storage("subject check", err)
	}
	if cnt == 0 {
		return nil, &apperrors.NotFoundError{Resource: "subject", ID: subjectID}
	}

	var subjects []model.Subject
	if err := s.db.WithContext(ctx).Model(&model.Subject{}).
		Joins("JOIN subject_prerequisites ON subject_prerequisites.prerequisite_id = subjects.id").
		Where("subject_prerequisites.subject_id = ?", subjectID).
		Order("subjects.name ASC").
		Find(&subjects).Error; err != nil {
		return nil, apperrors.Storage("prerequisite list", err)
	}
	return subjects, nil
}
