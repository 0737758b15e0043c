package sqlite_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/infra/adapter/persistence/sqlite"
	"github.com/Tommy88/xparser/internal/infra/db"
	"github.com/Tommy88/xparser/internal/repository"
)

func openMemory(t *testing.T) repository.SnapshotRepository {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	return sqlite.NewSnapshotRepo(conn, nil)
}

func TestSnapshotRepo_LoadEmpty(t *testing.T) {
	repo := openMemory(t)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSnapshotRepo_SaveReplacesContents(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()

	first := entity.Snapshot{
		"9N1": {Title: "Halo", OldPrice: "₺100,00", NewPrice: "₺50,00", ImageURL: "https://img/1.png", Date: "2024-05-01 10:00:00"},
		"9N2": {Title: "Forza", OldPrice: "", NewPrice: "Ücretsiz", ImageURL: "https://img/2.png", Date: "2024-05-02 10:00:00"},
	}
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}

	second := entity.Snapshot{
		"9N2": {Title: "Forza", NewPrice: "₺10,00", ImageURL: "https://img/2.png", Date: "not-a-date"},
	}
	require.NoError(t, repo.Save(ctx, second))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("Load after replace mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRepo_CanceledContext(t *testing.T) {
	repo := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	require.Error(t, err)
	require.Error(t, repo.Save(ctx, entity.Snapshot{"k": {Title: "x"}}))
}
