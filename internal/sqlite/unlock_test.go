package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/forestops/procdash/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestUnlockWindowRepository_PutGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUnlockWindowRepository(db)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_, err := repo.Get(ctx, "s1", "p_1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Put(ctx, &unlock.UnlockWindow{
		SessionID: "s1", RecordKey: "p_1", ExpiresAt: now.Add(unlock.Window),
	}))

	w, err := repo.Get(ctx, "s1", "p_1")
	require.NoError(t, err)
	require.True(t, w.ExpiresAt.Equal(now.Add(unlock.Window)))
	require.True(t, w.Open(now))

	_, err = repo.Get(ctx, "s2", "p_1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUnlockWindowRepository_PutReplaces(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUnlockWindowRepository(db)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Put(ctx, &unlock.UnlockWindow{SessionID: "s1", RecordKey: "new", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Put(ctx, &unlock.UnlockWindow{SessionID: "s1", RecordKey: "new", ExpiresAt: now.Add(unlock.Window)}))

	w, err := repo.Get(ctx, "s1", "new")
	require.NoError(t, err)
	require.True(t, w.ExpiresAt.Equal(now.Add(unlock.Window)))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUnlockWindowRepository_PutSweepsExpired(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUnlockWindowRepository(db)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Put(ctx, &unlock.UnlockWindow{SessionID: "s1", RecordKey: "p_1", ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(time.Hour)
	require.NoError(t, repo.Put(ctx, &unlock.UnlockWindow{SessionID: "s2", RecordKey: "p_2", ExpiresAt: now.Add(unlock.Window)}))

	_, err := repo.Get(ctx, "s1", "p_1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
