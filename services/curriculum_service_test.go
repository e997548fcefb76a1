package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolarhq/academico-api/model"
	"github.com/escolarhq/academico-api/utils/apperrors"
)

func TestAssignSubject(t *testing.T) {
	ctx := context.Background()

	t.Run("appends after the grade's last position", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")
		biology := createSubject(t, db, "BIO-201", "Biology")

		first, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, first.Position)
		assert.True(t, first.Active)
		assert.Equal(t, model.DefaultMinPassingGrade, first.MinPassingGrade)

		second, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: biology.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, second.Position)
	})

	t.Run("honors an explicit position and policy", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")

		inactive := false
		minPassing := 70.0
		weight := 25.0
		got, err := svc.Assign(ctx, AssignSubjectInput{
			GradeID:          grade.ID,
			SubjectID:        algebra.ID,
			Position:         5,
			Active:           &inactive,
			MinPassingGrade:  &minPassing,
			WeightPercentage: &weight,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, got.Position)
		assert.False(t, got.Active)
		assert.Equal(t, 70.0, got.MinPassingGrade)
		require.NotNil(t, got.WeightPercentage)
		assert.Equal(t, 25.0, *got.WeightPercentage)
	})

	t.Run("rejects a duplicate pair", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")

		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
		require.NoError(t, err)

		_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		exists, err := svc.Exists(ctx, grade.ID, algebra.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("rejects unknown grade or subject", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")

		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: 9999, SubjectID: algebra.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: 9999})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestListByGrade(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by position then name and joins area columns", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		math := createArea(t, db, "Mathematics", 1)
		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)

		algebra := createSubject(t, db, "MAT-101", "Algebra I")
		require.NoError(t, db.Model(algebra).Update("area_id", math.ID).Error)
		biology := createSubject(t, db, "BIO-201", "Biology")
		drama := createSubject(t, db, "ART-201", "Drama")

		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: drama.ID, Position: 3})
		require.NoError(t, err)
		_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID, Position: 1})
		require.NoError(t, err)
		_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: biology.ID, Position: 2})
		require.NoError(t, err)

		entries, err := svc.ListByGrade(ctx, grade.ID, nil)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "Algebra I", entries[0].Name)
		assert.Equal(t, "Biology", entries[1].Name)
		assert.Equal(t, "Drama", entries[2].Name)

		require.NotNil(t, entries[0].AreaName)
		assert.Equal(t, "Mathematics", *entries[0].AreaName)
		assert.Nil(t, entries[1].AreaName)
	})

	t.Run("filters on the assignment active flag", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")
		drama := createSubject(t, db, "ART-201", "Drama")

		inactive := false
		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
		require.NoError(t, err)
		_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: drama.ID, Active: &inactive})
		require.NoError(t, err)

		active := true
		entries, err := svc.ListByGrade(ctx, grade.ID, &active)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Algebra I", entries[0].Name)
	})

	t.Run("hides assignments whose subject was soft-deleted out of band", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		algebra := createSubject(t, db, "MAT-101", "Algebra I")

		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
		require.NoError(t, err)
		require.NoError(t, db.Delete(&model.Subject{}, algebra.ID).Error)

		entries, err := svc.ListByGrade(ctx, grade.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown grade is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		_, err := svc.ListByGrade(ctx, 9999, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestListAllGroupedByGrade(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCurriculumService(db, nil)

	primary := createLevel(t, db, "Primary", 1)
	secondary := createLevel(t, db, "Secondary", 2)
	first := createGrade(t, db, primary.ID, "1st Grade", 1)
	second := createGrade(t, db, primary.ID, "2nd Grade", 2)
	seventh := createGrade(t, db, secondary.ID, "7th Grade", 1)
	createGrade(t, db, secondary.ID, "8th Grade", 2) // no assignments, stays out of the overview

	algebra := createSubject(t, db, "MAT-101", "Algebra I")
	biology := createSubject(t, db, "BIO-201", "Biology")
	drama := createSubject(t, db, "ART-201", "Drama")
	require.NoError(t, db.Model(drama).Update("active", false).Error)

	// Assign out of grade order to prove the overview re-sorts
	_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: seventh.ID, SubjectID: biology.ID})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: second.ID, SubjectID: algebra.ID})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: first.ID, SubjectID: algebra.ID})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignSubjectInput{GradeID: first.ID, SubjectID: drama.ID})
	require.NoError(t, err)

	grouped, err := svc.ListAllGroupedByGrade(ctx, false)
	require.NoError(t, err)
	require.Len(t, grouped, 3)
	assert.Equal(t, "1st Grade", grouped[0].GradeName)
	assert.Equal(t, "2nd Grade", grouped[1].GradeName)
	assert.Equal(t, "7th Grade", grouped[2].GradeName)
	assert.Equal(t, "Primary", grouped[0].LevelName)
	assert.Equal(t, "Secondary", grouped[2].LevelName)
	assert.Len(t, grouped[0].Subjects, 2)

	// activeOnly drops the inactive Drama subject
	grouped, err = svc.ListAllGroupedByGrade(ctx, true)
	require.NoError(t, err)
	require.Len(t, grouped, 3)
	require.Len(t, grouped[0].Subjects, 1)
	assert.Equal(t, "Algebra I", grouped[0].Subjects[0].Name)
}

func TestUpdateAssignment(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCurriculumService(db, nil)

	level := createLevel(t, db, "Primary", 1)
	grade := createGrade(t, db, level.ID, "1st Grade", 1)
	algebra := createSubject(t, db, "MAT-101", "Algebra I")

	assignment, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
	require.NoError(t, err)

	position := 4
	inactive := false
	minPassing := 60.0
	_, err = svc.Update(ctx, assignment.ID, UpdateAssignmentInput{
		Position:        &position,
		Active:          &inactive,
		MinPassingGrade: &minPassing,
	})
	require.NoError(t, err)

	var reloaded model.GradeSubject
	require.NoError(t, db.First(&reloaded, assignment.ID).Error)
	assert.Equal(t, 4, reloaded.Position)
	assert.False(t, reloaded.Active)
	assert.Equal(t, 60.0, reloaded.MinPassingGrade)

	_, err = svc.Update(ctx, 9999, UpdateAssignmentInput{Position: &position})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRemoveAssignment(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCurriculumService(db, nil)

	level := createLevel(t, db, "Primary", 1)
	grade := createGrade(t, db, level.ID, "1st Grade", 1)
	algebra := createSubject(t, db, "MAT-101", "Algebra I")

	assignment, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: algebra.ID})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.ID, removed.ID)

	exists, err := svc.Exists(ctx, grade.ID, algebra.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Remove(ctx, assignment.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites positions to the given order", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		a := createSubject(t, db, "MAT-101", "Algebra I")
		b := createSubject(t, db, "BIO-201", "Biology")
		c := createSubject(t, db, "ART-201", "Drama")

		for _, s := range []*model.Subject{a, b, c} {
			_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: s.ID})
			require.NoError(t, err)
		}

		require.NoError(t, svc.Reorder(ctx, grade.ID, []uint{c.ID, a.ID, b.ID}))

		entries, err := svc.ListByGrade(ctx, grade.ID, nil)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "Drama", entries[0].Name)
		assert.Equal(t, 1, entries[0].Position)
		assert.Equal(t, "Algebra I", entries[1].Name)
		assert.Equal(t, 2, entries[1].Position)
		assert.Equal(t, "Biology", entries[2].Name)
		assert.Equal(t, 3, entries[2].Position)
	})

	t.Run("unassigned subjects in the list are silent no-ops", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		a := createSubject(t, db, "MAT-101", "Algebra I")
		stranger := createSubject(t, db, "BIO-201", "Biology")

		_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: a.ID})
		require.NoError(t, err)

		require.NoError(t, svc.Reorder(ctx, grade.ID, []uint{stranger.ID, a.ID}))

		entries, err := svc.ListByGrade(ctx, grade.ID, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].Position)
	})

	t.Run("unknown grade is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		err := svc.Reorder(ctx, 9999, []uint{1})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("a mid-batch failure leaves every position untouched", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewCurriculumService(db, nil)

		level := createLevel(t, db, "Primary", 1)
		grade := createGrade(t, db, level.ID, "1st Grade", 1)
		a := createSubject(t, db, "MAT-101", "Algebra I")
		b := createSubject(t, db, "BIO-201", "Biology")
		c := createSubject(t, db, "ART-201", "Drama")

		for _, s := range []*model.Subject{a, b, c} {
			_, err := svc.Assign(ctx, AssignSubjectInput{GradeID: grade.ID, SubjectID: s.ID})
			require.NoError(t, err)
		}

		// Force the third rewrite to fail so the whole batch must roll back.
		// The subject ID is inlined because SQLite does not allow bound
		// parameters inside trigger bodies.
		require.NoError(t, db.Exec(fmt.Sprintf(`CREATE TRIGGER block_third_position
			BEFORE UPDATE ON grade_subjects
			WHEN NEW.position = 3 AND NEW.subject_id = %d
			BEGIN SELECT RAISE(ABORT, 'forced failure'); END`, b.ID)).Error)

		err := svc.Reorder(ctx, grade.ID, []uint{c.ID, a.ID, b.ID})
		require.Error(t, err)

		entries, err := svc.ListByGrade(ctx, grade.ID, nil)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "Algebra I", entries[0].Name)
		assert.Equal(t, 1, entries[0].Position)
		assert.Equal(t, "Biology", entries[1].Name)
		assert.Equal(t, 2, entries[1].Position)
		assert.Equal(t, "Drama", entries[2].Name)
		assert.Equal(t, 3, entries[2].Position)
	})
}
