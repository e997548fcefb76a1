package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolarhq/academico-api/utils/apperrors"
)

func TestCreateArea(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an area", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAreaService(db)

		area, err := svc.Create(ctx, AreaInput{Name: "Mathematics", Color: "#2563EB", SortOrder: 1})
		require.NoError(t, err)
		assert.NotZero(t, area.ID)
		assert.Equal(t, "#2563EB", area.Color)
	})

	t.Run("rejects a blank or duplicate name", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAreaService(db)

		_, err := svc.Create(ctx, AreaInput{Name: "  "})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		_, err = svc.Create(ctx, AreaInput{Name: "Mathematics"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, AreaInput{Name: "mathematics"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestListAreas(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewAreaService(db)

	_, err := svc.Create(ctx, AreaInput{Name: "Science", SortOrder: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AreaInput{Name: "Mathematics", SortOrder: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AreaInput{Name: "Arts", SortOrder: 2})
	require.NoError(t, err)

	areas, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 3)
	assert.Equal(t, "Mathematics", areas[0].Name)
	assert.Equal(t, "Arts", areas[1].Name) // ties break on name
	assert.Equal(t, "Science", areas[2].Name)
}

func TestUpdateArea(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewAreaService(db)

	area, err := svc.Create(ctx, AreaInput{Name: "Mathematics", SortOrder: 1})
	require.NoError(t, err)
	other, err := svc.Create(ctx, AreaInput{Name: "Science", SortOrder: 2})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, area.ID, AreaInput{Name: "Maths", Color: "#DC2626", SortOrder: 3})
	require.NoError(t, err)
	assert.Equal(t, "Maths", updated.Name)
	assert.Equal(t, "#DC2626", updated.Color)
	assert.Equal(t, 3, updated.SortOrder)

	// Renaming onto another area's name is a conflict
	_, err = svc.Update(ctx, other.ID, AreaInput{Name: "maths"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Update(ctx, 9999, AreaInput{Name: "Anything"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteArea(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an unused area", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAreaService(db)

		area, err := svc.Create(ctx, AreaInput{Name: "Mathematics"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, area.ID))

		areas, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, areas)
	})

	t.Run("blocked while subjects reference it", func(t *testing.T) {
		db := newTestDB(t)
		areas := NewAreaService(db)
		catalog := NewSubjectCatalogService(db)

		area, err := areas.Create(ctx, AreaInput{Name: "Mathematics"})
		require.NoError(t, err)

		subject, err := catalog.Create(ctx, CreateSubjectInput{Code: "MAT-101", Name: "Algebra I", AreaID: &area.ID, Active: true})
		require.NoError(t, err)

		err = areas.Delete(ctx, area.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		// Once the only subject is retired the area can go
		require.NoError(t, catalog.SoftDelete(ctx, subject.ID))
		require.NoError(t, areas.Delete(ctx, area.ID))
	})
}
