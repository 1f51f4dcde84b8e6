package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/mist/internal/models"
	mtest "github.com/desertthunder/mist/internal/testing"
)

func TestMigrations(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i].version <= migrations[i-1].version {
				t.Errorf("migrations not sorted: %d after %d", migrations[i].version, migrations[i-1].version)
			}
		}
	})

	t.Run("migrate and rollback", func(t *testing.T) {
		db, err := openDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := migrate(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
		if err := migrate(db); err != nil {
			t.Fatalf("second migrate should be a no-op: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err != nil {
			t.Errorf("runs table should exist: %v", err)
		}

		if err := rollback(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err == nil {
			t.Error("runs table should be dropped after rollback")
		}
		if err := rollback(db); err == nil {
			t.Error("expected error when nothing is applied")
		}
	})
}

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mist", "history.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()
	mtest.AssertFileExists(t, path)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := []models.Run{
		{ID: "r1", Remote: "origin", StartedAt: base, FinishedAt: base.Add(time.Minute), Missing: 3, Fetched: 3, Outcome: models.OutcomeCompleted},
		{ID: "r2", Remote: "other", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour), Outcome: models.OutcomeNoop},
		{ID: "r3", Remote: "origin", StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(3 * time.Hour), Missing: 4, Fetched: 2, Failed: 1, Outcome: models.OutcomeStopped},
	}
	for _, run := range runs {
		if err := j.Record(run); err != nil {
			t.Fatalf("record %s: %v", run.ID, err)
		}
	}

	t.Run("filtered by remote", func(t *testing.T) {
		got, err := j.Recent("origin", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r1" {
			t.Fatalf("unexpected runs %+v", got)
		}
		if got[0].Outcome != models.OutcomeStopped || got[0].Failed != 1 || got[0].Duration() != time.Hour {
			t.Errorf("unexpected run %+v", got[0])
		}
	})

	t.Run("limit across remotes", func(t *testing.T) {
		got, err := j.Recent("", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r2" {
			t.Errorf("unexpected runs %+v", got)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		if err := j.Record(runs[0]); err == nil {
			t.Error("expected primary key violation")
		}
	})
}
