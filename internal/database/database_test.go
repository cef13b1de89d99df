package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestJournalRecordsBattles(t *testing.T) {
	db := openTestDB(t)
	journal := NewJournal(db)

	if journal.RunID() == "" || journal.RunID() == NewJournal(db).RunID() {
		t.Fatal("expected a unique run ID per journal")
	}
	if err := journal.StartRun("double"); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	start := time.Now()
	battles := []BattleRecord{
		{BattleNumber: 1, Mode: "double", DeckIndex: 0, CheckEndAfter: 10, CardsPlayed: 12, EndReason: "marker", Success: true},
		{BattleNumber: 2, Mode: "double", DeckIndex: 0, CheckEndAfter: 8, CardsPlayed: 60, EndReason: "card_limit", Success: true},
		{BattleNumber: 3, Mode: "double", DeckIndex: 1, CheckEndAfter: 25, EndReason: "not_started"},
	}
	for _, b := range battles {
		b.StartedAt = start
		b.FinishedAt = start.Add(time.Minute)
		if err := journal.RecordBattle(b); err != nil {
			t.Fatalf("RecordBattle failed: %v", err)
		}
	}
	if err := journal.RecordRecovery("Battle_Interface", true); err != nil {
		t.Fatalf("RecordRecovery failed: %v", err)
	}
	if err := journal.RecordRecovery("", false); err != nil {
		t.Fatalf("RecordRecovery failed: %v", err)
	}

	listed, err := db.ListBattles(journal.RunID())
	if err != nil {
		t.Fatalf("ListBattles failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("Expected 3 battles, got %d", len(listed))
	}
	if listed[1].CardsPlayed != 60 || listed[1].EndReason != "card_limit" || listed[1].RunID != journal.RunID() {
		t.Errorf("unexpected second battle: %+v", listed[1])
	}
	if listed[0].Duration() != time.Minute {
		t.Errorf("duration = %v, want 1m", listed[0].Duration())
	}

	stats, err := db.GetRunStats(journal.RunID())
	if err != nil {
		t.Fatalf("GetRunStats failed: %v", err)
	}
	want := RunStats{Battles: 3, SuccessfulBattles: 2, CardsPlayed: 72, EndedByMarker: 1, EndedByCardLimit: 1, Recoveries: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	if err := journal.FinishRun(3, 2, 72, "interrupted"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	run, err := db.GetRun(journal.RunID())
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.FinishedAt == nil || run.StopReason == nil || *run.StopReason != "interrupted" || run.SuccessfulBattles != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestErrorLogging(t *testing.T) {
	db := openTestDB(t)
	journal := NewJournal(db)
	if err := journal.StartRun("single"); err != nil {
		t.Fatal(err)
	}

	if err := journal.LogError("device_channel", "Device", "screenshot command failed", errors.New("exit status 1"), true); err != nil {
		t.Fatalf("LogError failed: %v", err)
	}
	if err := journal.LogError("recovery", "", "no recovery template matched", nil, false); err != nil {
		t.Fatalf("LogError failed: %v", err)
	}

	recent, err := db.GetRecentErrors(journal.RunID(), 10)
	if err != nil {
		t.Fatalf("GetRecentErrors failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Category != "recovery" || recent[0].Recoverable {
		t.Fatalf("unexpected errors: %+v", recent)
	}
	if recent[1].ErrorMessage == nil || *recent[1].ErrorMessage != "exit status 1" {
		t.Errorf("error message not stored: %+v", recent[1])
	}

	counts, err := db.CountErrorsByCategory(journal.RunID())
	if err != nil {
		t.Fatalf("CountErrorsByCategory failed: %v", err)
	}
	if counts["device_channel"] != 1 || counts["recovery"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["error_log"] != 2 || stats["runs"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestReportSelectsLatestRun(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Report("", 10); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("empty journal error = %v, want ErrNoRuns", err)
	}

	older := NewJournal(db)
	if err := older.StartRun("single"); err != nil {
		t.Fatal(err)
	}
	latest := NewJournal(db)
	if err := latest.StartRun("defense"); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for i, success := range []bool{false, true} {
		rec := BattleRecord{
			BattleNumber: i + 1,
			Mode:         "defense",
			CardsPlayed:  12,
			EndReason:    "marker",
			Success:      success,
			StartedAt:    start,
			FinishedAt:   start.Add(time.Minute),
		}
		if !success {
			rec.EndReason, rec.CardsPlayed = "not_started", 0
		}
		if err := latest.RecordBattle(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := latest.LogError("recovery", "Bot", "battle did not start", nil, true); err != nil {
		t.Fatal(err)
	}
	if err := latest.FinishRun(2, 1, 12, "interrupted"); err != nil {
		t.Fatal(err)
	}

	id, err := db.LatestRunID()
	if err != nil || id != latest.RunID() {
		t.Fatalf("LatestRunID = %q, %v; want %q", id, err, latest.RunID())
	}

	report, err := db.Report("", 5)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.Run.ID != latest.RunID() || report.Run.Mode != "defense" || report.Run.Battles != 2 {
		t.Errorf("run = %+v", report.Run)
	}
	if report.Stats.Battles != 2 || report.Stats.SuccessfulBattles != 1 || report.Stats.EndedByMarker != 1 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if len(report.Battles) != 2 || report.Battles[1].BattleNumber != 2 {
		t.Errorf("battles = %+v", report.Battles)
	}
	if report.ErrorCounts["recovery"] != 1 || len(report.RecentErrors) != 1 {
		t.Errorf("errors = %v, %+v", report.ErrorCounts, report.RecentErrors)
	}
	if report.TableCounts["runs"] != 2 || report.TableCounts["battles"] != 2 {
		t.Errorf("table counts = %v", report.TableCounts)
	}
	if report.SchemaVersion != LatestVersion() {
		t.Errorf("schema version = %d", report.SchemaVersion)
	}

	// An explicit ID reports that run
	report, err = db.Report(older.RunID(), 5)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.Stats.Battles != 0 || len(report.RecentErrors) != 0 {
		t.Errorf("older run report = %+v", report.Stats)
	}

	if _, err := db.Report("missing", 5); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestBattleForeignKey(t *testing.T) {
	db := openTestDB(t)
	journal := NewJournal(db)

	// No run row was inserted
	err := journal.RecordBattle(BattleRecord{Mode: "single", EndReason: "marker", StartedAt: time.Now(), FinishedAt: time.Now()})
	if err == nil {
		t.Error("expected foreign key violation without a run")
	}
}
