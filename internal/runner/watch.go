package runner

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/fsnotify/fsnotify"

	logx "topicherd/pkg/logx"
)

const (
	processedDirName = "processed"
	failedDirName    = "failed"

	// debounceDelay gives editors and uploads time to finish writing a batch
	// file before we read it.
	debounceDelay = 500 * time.Millisecond
)

// Watch runs daemon mode: batch files dropped into dir are posted as one run
// each, then archived under dir/processed (or dir/failed when unreadable).
// An optional cron expression triggers periodic rescans to catch events the
// watcher missed. Watch blocks until ctx is cancelled.
//
// The watcher self-heals: when fsnotify gets into a bad state it is recreated
// with a small jittered backoff, same as losing and re-adding the directory.
func (r *Runner) Watch(ctx context.Context, dir, rescanSpec string) error {
	if err := os.MkdirAll(filepath.Join(dir, processedDirName), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, failedDirName), 0o755); err != nil {
		return err
	}

	// kick coalesces scan triggers from fsnotify debounce and cron rescans.
	kick := make(chan struct{}, 1)
	trigger := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}

	stopRescan, err := r.startRescan(rescanSpec, trigger)
	if err != nil {
		return err
	}
	if stopRescan != nil {
		defer stopRescan()
	}

	// Pick up whatever is already pending before the first event.
	trigger()

	go r.scanLoop(ctx, dir, kick)

	notified, _ := daemon.SdNotify(false, daemon.SdNotifyReady)
	if notified {
		defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()
	}

	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	wait := func() bool {
		d := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff *= 2
			if backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err != nil {
			r.log.Warn("spool watch init failed", logx.Err(err), logx.String("dir", dir))
			if !wait() {
				return nil
			}
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			r.log.Warn("spool watch add failed", logx.Err(err), logx.String("dir", dir))
			if !wait() {
				return nil
			}
			continue
		}

		backoff = restartBackoffBase
		r.log.Info("spool watcher started", logx.String("dir", dir))

		var debounce *time.Timer
		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if !isBatchFile(ev.Name) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, trigger)
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				// Overflow means we may have missed events; rescan and keep going.
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					r.log.Warn("spool watch overflow; forcing rescan", logx.Err(err))
					trigger()
					continue
				}
				r.log.Warn("spool watch error", logx.Err(err), logx.String("dir", dir))
				if strings.Contains(strings.ToLower(err.Error()), "closed") {
					broken = true
				}
			}
		}

		if debounce != nil {
			debounce.Stop()
		}
		_ = w.Close()
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn("spool watcher stopped; restarting", logx.String("dir", dir))
		if !wait() {
			return nil
		}
	}
}

// scanLoop serializes runs: no matter how many triggers arrive, at most one
// batch file is being posted at a time, and files within a scan are posted in
// name order.
func (r *Runner) scanLoop(ctx context.Context, dir string, kick <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
			for _, path := range pendingFiles(dir) {
				if ctx.Err() != nil {
					return
				}
				r.processFile(ctx, dir, path)
			}
		}
	}
}

func (r *Runner) processFile(ctx context.Context, dir, path string) {
	_, err := r.RunFile(ctx, path)
	if ctx.Err() != nil {
		// Interrupted mid-run: the remaining topics were never posted, whatever
		// RunFile reported. Leave the file in place for the next start.
		return
	}
	if err != nil {
		r.log.Error("batch file rejected", logx.String("file", path), logx.Err(err))
		r.archive(path, filepath.Join(dir, failedDirName))
		return
	}
	r.archive(path, filepath.Join(dir, processedDirName))
}

// archive moves a handled batch file out of the spool, prefixing a timestamp
// so repeated drops of the same filename don't clobber each other.
func (r *Runner) archive(path, destDir string) {
	name := time.Now().UTC().Format("20060102T150405Z") + "_" + filepath.Base(path)
	if err := os.Rename(path, filepath.Join(destDir, name)); err != nil {
		r.log.Warn("failed to archive batch file", logx.String("file", path), logx.Err(err))
	}
}

// pendingFiles lists unprocessed batch files directly inside the spool
// directory, sorted by name for a stable processing order.
func pendingFiles(dir string) []string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !isBatchFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out
}

func isBatchFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
