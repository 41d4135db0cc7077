package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/forestops/procdash/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSlotRepository_ReadMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSlotRepository(db, "forest_ops_projects_v1")

	_, err := repo.Read(context.Background())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSlotRepository_WriteRead(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSlotRepository(db, "forest_ops_projects_v1")
	written := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return written }

	require.NoError(t, repo.Write(ctx, []byte(`[{"id":"p_1"}]`)))
	require.NoError(t, repo.Write(ctx, []byte(`[{"id":"p_2"}]`)))

	payload, err := repo.Read(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"p_2"}]`, string(payload))

	updated, err := repo.UpdatedAt(ctx)
	require.NoError(t, err)
	require.True(t, updated.Equal(written))

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM slots`).Scan(&rows))
	require.Equal(t, 1, rows)
}

func TestSlotRepository_SlotsAreIndependent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	a := NewSlotRepository(db, "a")
	b := NewSlotRepository(db, "b")

	require.NoError(t, a.Write(ctx, []byte("[]")))
	_, err := b.Read(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Equal(t, "a", a.Name())
}
