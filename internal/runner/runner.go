// Package runner coordinates one posting run: load the batch file, assign
// credentials round-robin, submit with bounded concurrency, and journal every
// attempt in dispatch order.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"topicherd/internal/credential"
	"topicherd/internal/discourse"
	"topicherd/internal/dispatch"
	"topicherd/internal/journal"
	"topicherd/internal/notify"
	"topicherd/internal/topics"
	logx "topicherd/pkg/logx"
)

type Config struct {
	// Concurrency bounds in-flight submissions. 1 means strictly sequential,
	// which matches the paced one-request-at-a-time behavior operators expect
	// by default. Higher values never change credential assignment.
	Concurrency int
}

type Runner struct {
	log      logx.Logger
	client   *discourse.Client
	pool     credential.Pool
	store    journal.Store
	notifier *notify.Notifier
	cfg      Config
}

func New(cfg Config, client *discourse.Client, pool credential.Pool, store journal.Store, notifier *notify.Notifier, log logx.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		log:      log,
		client:   client,
		pool:     pool,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
	}
}

type result struct {
	index   int
	record  dispatch.Record
	created *discourse.CreatedPost
	err     error
	took    time.Duration
}

// RunFile posts every topic in the batch file. It returns an error only when
// the file itself cannot be loaded; per-topic failures are journaled and
// reflected in the summary, never propagated.
func (r *Runner) RunFile(ctx context.Context, path string) (journal.RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now()
	log := r.log.With(logx.String("run_id", runID))

	list, skips, err := topics.Load(path)
	if err != nil {
		return journal.RunSummary{}, err
	}

	for _, sk := range skips {
		log.Warn("topic entry skipped",
			logx.Int("index", sk.Index),
			logx.String("title", sk.Title),
			logx.String("reason", sk.Reason))
		r.appendEntry(ctx, log, journal.Entry{
			At:     time.Now(),
			RunID:  runID,
			Index:  sk.Index,
			Title:  sk.Title,
			Status: journal.StatusSkipped,
			Error:  sk.Reason,
		})
	}

	records := dispatch.Assign(list, r.pool)
	log.Info("run started",
		logx.String("source", path),
		logx.Int("topics", len(records)),
		logx.Int("skipped", len(skips)),
		logx.Int("pool_size", len(r.pool)),
		logx.Int("concurrency", r.cfg.Concurrency))

	succeeded, failed := r.submitAll(ctx, log, runID, records)

	sum := journal.RunSummary{
		RunID:      runID,
		Source:     path,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Succeeded:  succeeded,
		Failed:     failed,
		Skipped:    len(skips),
	}
	log.Info("run finished",
		logx.Int("succeeded", sum.Succeeded),
		logx.Int("failed", sum.Failed),
		logx.Int("skipped", sum.Skipped),
		logx.Duration("took", sum.FinishedAt.Sub(sum.StartedAt)))

	if r.store != nil {
		if err := r.store.AppendRun(ctx, sum); err != nil {
			log.Warn("journal run append failed", logx.Err(err))
		}
	}
	r.notifier.RunCompleted(ctx, sum)
	return sum, nil
}

// submitAll runs the bounded worker pool and feeds completions through the
// single-writer sequencer so journal lines come out in dispatch order even
// when submissions overlap.
func (r *Runner) submitAll(ctx context.Context, log logx.Logger, runID string, records []dispatch.Record) (succeeded, failed int) {
	if len(records) == 0 {
		return 0, 0
	}

	completed := make(chan result, len(records))

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		seq := newSequencer(len(records))
		for res := range completed {
			for _, ready := range seq.push(res) {
				if ready.err != nil {
					failed++
				} else {
					succeeded++
				}
				r.writeResult(ctx, log, runID, ready)
			}
		}
	}()

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, rec := range records {
		rec := rec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			start := time.Now()
			created, err := r.client.CreateTopic(ctx, rec.Credential, rec.Topic)
			completed <- result{
				index:   rec.Index,
				record:  rec,
				created: created,
				err:     err,
				took:    time.Since(start),
			}
		}()
	}
	wg.Wait()
	close(completed)
	writerWG.Wait()
	return succeeded, failed
}

func (r *Runner) writeResult(ctx context.Context, log logx.Logger, runID string, res result) {
	// Journal entries carry the batch-file position, same index space as the
	// skip entries, so (run_id, index) identifies one file entry unambiguously.
	e := journal.Entry{
		At:       time.Now(),
		RunID:    runID,
		Index:    res.record.Topic.SourceIndex,
		Title:    res.record.Topic.Title,
		Username: res.record.Credential.Username,
		TookMS:   res.took.Milliseconds(),
	}
	if res.err != nil {
		e.Status = journal.StatusFailed
		e.ErrorKind = string(discourse.Kind(res.err))
		e.Error = res.err.Error()
		log.Error("topic failed",
			logx.Int("index", e.Index),
			logx.String("title", e.Title),
			logx.String("username", e.Username),
			logx.String("kind", e.ErrorKind),
			logx.Err(res.err))
	} else {
		e.Status = journal.StatusOK
		if res.created != nil {
			e.TopicID = res.created.TopicID
			e.PostNumber = res.created.PostNumber
		}
		log.Info("topic created",
			logx.Int("index", e.Index),
			logx.String("title", e.Title),
			logx.String("username", e.Username),
			logx.Int("topic_id", e.TopicID),
			logx.Int("post_number", e.PostNumber),
			logx.Duration("took", res.took))
	}
	r.appendEntry(ctx, log, e)
}

func (r *Runner) appendEntry(ctx context.Context, log logx.Logger, e journal.Entry) {
	if r.store == nil {
		return
	}
	if err := r.store.AppendEntry(ctx, e); err != nil {
		// Journal trouble must not fail the posting run.
		log.Warn("journal append failed", logx.Int("index", e.Index), logx.Err(err))
	}
}
