package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/schoolsvc/domain"
)

func TestStore_CRUD(t *testing.T) {
	store := NewStore[domain.Classroom](setupTestDB(t))
	ctx := context.Background()

	room := &domain.Classroom{Name: "A-101", Capacity: 20}
	require.NoError(t, store.Create(ctx, room))
	require.NotZero(t, room.ID)

	assert.ErrorIs(t, store.Create(ctx, &domain.Classroom{Name: "A-101", Capacity: 5}), domain.ErrConflict)

	updated, err := store.Update(ctx, room.ID, &domain.Classroom{Name: "A-102", Capacity: 25, Location: "north"})
	require.NoError(t, err)
	assert.Equal(t, room.ID, updated.ID)
	assert.Equal(t, "A-102", updated.Name)
	assert.Equal(t, 25, updated.Capacity)

	_, err = store.Update(ctx, 999, &domain.Classroom{Name: "x", Capacity: 1})
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)

	rows, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Delete(ctx, room.ID))
	_, err = store.Get(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestGroupRepository(t *testing.T) {
	db := setupTestDB(t)
	groups := NewGroupRepository(db)
	students := NewStudentRepository(db)
	ctx := context.Background()

	require.NoError(t, groups.Create(ctx, &domain.Group{Name: "Math A", Subject: "math", TeacherID: 3, StudentIDs: []uint{1, 2}}))
	require.NoError(t, groups.Create(ctx, &domain.Group{Name: "Physics", Subject: "physics", TeacherID: 4}))

	mine, err := groups.ListByTeacher(ctx, 3)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, []uint{1, 2}, mine[0].StudentIDs)

	_, err = groups.FindByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
	_, err = students.FindByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}
