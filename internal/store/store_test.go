package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(scenario string, pass bool) Run {
	return Run{
		Scenario: scenario,
		Pass:     pass,
		Result:   []byte(`{"name":"` + scenario + `","pass":true}`),
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_runs_scenario'").Scan(&name)
	if err != nil {
		t.Errorf("history index not found after idempotent opens: %v", err)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"user_version": "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestWriteRun_AssignsSeqAndID(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("run-1", "run-2")))
	ctx := context.Background()

	first, err := s.WriteRun(ctx, testRun("a", true))
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	second, err := s.WriteRun(ctx, testRun("b", false))
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	if first.ID != "run-1" || first.Seq != 1 {
		t.Errorf("first = %s/%d, want run-1/1", first.ID, first.Seq)
	}
	if second.ID != "run-2" || second.Seq != 2 {
		t.Errorf("second = %s/%d, want run-2/2", second.ID, second.Seq)
	}
}

func TestWriteRun_KeepsExplicitID(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator()))

	run := testRun("a", true)
	run.ID = "explicit"
	got, err := s.WriteRun(context.Background(), run)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if got.ID != "explicit" {
		t.Errorf("ID = %q, want explicit", got.ID)
	}
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("same", "same")))
	ctx := context.Background()

	if _, err := s.WriteRun(ctx, testRun("a", true)); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	if _, err := s.WriteRun(ctx, testRun("a", true)); err == nil {
		t.Error("second WriteRun() with the same id should fail")
	}
}

func TestWriteRun_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteRun(ctx, Run{Result: []byte(`{}`)}); err == nil {
		t.Error("expected error for missing scenario")
	}
	if _, err := s.WriteRun(ctx, Run{Scenario: "a", Result: []byte(`{`)}); err == nil {
		t.Error("expected error for invalid result JSON")
	}
}

func TestReadRun(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("run-1")))
	ctx := context.Background()

	run := testRun("delay_take", true)
	run.SourcePath = "scenarios/delay_take.yaml"
	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Scenario != "delay_take" || !got.Pass || got.Seq != 1 {
		t.Errorf("ReadRun() = %+v", got)
	}
	if got.SourcePath != "scenarios/delay_take.yaml" {
		t.Errorf("SourcePath = %q", got.SourcePath)
	}
	if string(got.Result) != string(run.Result) {
		t.Errorf("Result = %s, want %s", got.Result, run.Result)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("r1", "r2", "r3", "r4")))
	ctx := context.Background()

	for _, name := range []string{"a", "b", "a", "a"} {
		if _, err := s.WriteRun(ctx, testRun(name, true)); err != nil {
			t.Fatalf("WriteRun() failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		scenario string
		limit    int
		want     []string
	}{
		{"all", "", 0, []string{"r1", "r2", "r3", "r4"}},
		{"filtered", "a", 0, []string{"r1", "r3", "r4"}},
		{"latest two", "", 2, []string{"r3", "r4"}},
		{"filtered latest", "a", 1, []string{"r4"}},
		{"no match", "zzz", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.scenario, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() failed: %v", err)
			}
			got := make([]string, len(runs))
			for i, r := range runs {
				got[i] = r.ID
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListRuns() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ListRuns() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	if a == b {
		t.Error("ids should be unique")
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("uuid.Parse() failed: %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("version = %d, want 7", parsed.Version())
	}
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	if got := g.Generate(); got != "only" {
		t.Errorf("Generate() = %q", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic after ids are exhausted")
		}
	}()
	g.Generate()
}
