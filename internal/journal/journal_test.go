package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "topicherd/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q) error: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %v, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreAppendsOrderedJSONLines(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "journal")
	st, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	for i, status := range []string{StatusOK, StatusFailed, StatusOK} {
		e := Entry{At: now, RunID: "run-1", Index: i, Title: "t", Status: status}
		if err := st.AppendEntry(ctx, e); err != nil {
			t.Fatalf("AppendEntry(%d) error: %v", i, err)
		}
	}
	if err := st.AppendRun(ctx, RunSummary{RunID: "run-1", Source: "topics.json", StartedAt: now, FinishedAt: now, Succeeded: 2, Failed: 1}); err != nil {
		t.Fatalf("AppendRun error: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	f, err := os.Open(prefix + ".entries.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(entries), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Index != i {
			t.Fatalf("entries[%d].Index = %d, entries must be in submission order", i, e.Index)
		}
	}
	if entries[1].Status != StatusFailed {
		t.Fatalf("entries[1].Status = %s", entries[1].Status)
	}

	rb, err := os.ReadFile(prefix + ".runs.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	var sum RunSummary
	if err := json.Unmarshal(rb, &sum); err != nil {
		t.Fatalf("run summary not valid JSON: %v", err)
	}
	if sum.Succeeded != 2 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestFileStoreRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("expected error for file driver without path")
	}
}
