// Package journal provides the durable submission journal.
//
// It records one entry per submission attempt (including skipped entries) and
// one summary row per run. Appends are best-effort from the caller's point of
// view: a journal failure is logged by the runner but never aborts a posting
// run.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "topicherd/pkg/logx"
)

var ErrDisabled = errors.New("journal disabled")

// Entry statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Config configures the journal.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one submission attempt. Keep it compact and schema-stable.
// Index is the entry's position in the source batch file, so within one run
// the (RunID, Index) pair is unique across skips and submissions.
type Entry struct {
	At         time.Time `json:"at"`
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	Title      string    `json:"title"`
	Username   string    `json:"username,omitempty"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	TopicID    int       `json:"topic_id,omitempty"`
	PostNumber int       `json:"post_number,omitempty"`
	TookMS     int64     `json:"took_ms"`
}

// RunSummary records the outcome of one whole run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// Store is the persistence API used by the runner.
type Store interface {
	AppendEntry(ctx context.Context, e Entry) error
	AppendRun(ctx context.Context, r RunSummary) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
