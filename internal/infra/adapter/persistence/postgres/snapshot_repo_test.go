package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/infra/adapter/persistence/postgres"
)

var columns = []string{"entry_key", "title", "old_price", "new_price", "image_url", "observed_at"}

/* ──────────────────────────────── 1. Load ──────────────────────────────── */

func TestSnapshotRepo_Load(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM catalog_entries`)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("9N1", "Halo", "₺100,00", "₺50,00", "https://img/1.png", "2024-05-01 10:00:00").
			AddRow("9N2", "Forza", "", "Ücretsiz", "https://img/2.png", "2024-05-02 10:00:00"))

	repo := postgres.NewSnapshotRepo(db, nil)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	want := entity.Snapshot{
		"9N1": {Title: "Halo", OldPrice: "₺100,00", NewPrice: "₺50,00", ImageURL: "https://img/1.png", Date: "2024-05-01 10:00:00"},
		"9N2": {Title: "Forza", NewPrice: "Ücretsiz", ImageURL: "https://img/2.png", Date: "2024-05-02 10:00:00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotRepo_Load_SkipsUnreadableRows(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM catalog_entries`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("9N1", "Halo", "₺100,00", "₺50,00", "https://img/1.png", "2024-05-01 10:00:00").
			AddRow("9N2", nil, "", "₺10,00", "https://img/2.png", "2024-05-02 10:00:00"))

	got, err := postgres.NewSnapshotRepo(db, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 entry, got %d", len(got))
	}
	if _, ok := got["9N1"]; !ok {
		t.Fatalf("9N1 missing: %v", got)
	}
}

func TestSnapshotRepo_Load_QueryError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM catalog_entries`).WillReturnError(errors.New("connection reset"))

	if _, err := postgres.NewSnapshotRepo(db, nil).Load(context.Background()); err == nil {
		t.Fatal("want error, got nil")
	}
}

/* ──────────────────────────────── 2. Save ──────────────────────────────── */

func TestSnapshotRepo_Save(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM catalog_entries`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6)`))
	prep.ExpectExec().
		WithArgs("9N1", "Halo", "₺100,00", "₺50,00", "https://img/1.png", "2024-05-01 10:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("9N2", "Forza", "", "Ücretsiz", "https://img/2.png", "2024-05-02 10:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap := entity.Snapshot{
		"9N2": {Title: "Forza", NewPrice: "Ücretsiz", ImageURL: "https://img/2.png", Date: "2024-05-02 10:00:00"},
		"9N1": {Title: "Halo", OldPrice: "₺100,00", NewPrice: "₺50,00", ImageURL: "https://img/1.png", Date: "2024-05-01 10:00:00"},
	}
	if err := postgres.NewSnapshotRepo(db, nil).Save(context.Background(), snap); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotRepo_Save_RollsBackOnError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM catalog_entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`INSERT INTO catalog_entries`)
	prep.ExpectExec().WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	snap := entity.Snapshot{"9N1": {Title: "Halo"}}
	if err := postgres.NewSnapshotRepo(db, nil).Save(context.Background(), snap); err == nil {
		t.Fatal("want error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
