package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/metrics"
)

// DefaultPollInterval is the delay between job queries.
const DefaultPollInterval = 2 * time.Second

// JobWatcher polls the job query until a session has no active jobs left, or
// until one of them asks for user input. At most one polling loop runs per
// watcher instance; the loop's eventual outcome is delivered through a
// one-shot Completion.
//
// Every query updates the observable snapshot even while polling continues,
// so consumers can read job progress text without waiting for completion.
type JobWatcher struct {
	jobs     gateway.JobQuery
	interval time.Duration
	log      *zerolog.Logger

	mu         sync.Mutex
	polling    bool
	cancel     context.CancelFunc
	completion *Completion[[]model.Job]
	snapshot   []model.Job
	onUpdate   func([]model.Job)
}

func NewJobWatcher(jobs gateway.JobQuery, interval time.Duration, logger *zerolog.Logger) *JobWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	wlog := logger.With().Str("component", "JobWatcher").Logger()
	return &JobWatcher{jobs: jobs, interval: interval, log: &wlog}
}

// OnUpdate registers a callback fired with a fresh snapshot after every query.
func (w *JobWatcher) OnUpdate(fn func([]model.Job)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onUpdate = fn
}

// Jobs returns a copy of the latest observed snapshot.
func (w *JobWatcher) Jobs() []model.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Job, len(w.snapshot))
	copy(out, w.snapshot)
	return out
}

// StartPolling begins a polling loop for the session and returns its
// completion handle. Fails with domain.ErrPollInProgress while a loop is
// already active for this instance.
func (w *JobWatcher) StartPolling(ctx context.Context, sessionID string) (*Completion[[]model.Job], error) {
	w.mu.Lock()
	if w.polling {
		w.mu.Unlock()
		return nil, domain.ErrPollInProgress
	}
	pollCtx, cancel := context.WithCancel(ctx)
	c := NewCompletion[[]model.Job]()
	w.polling = true
	w.cancel = cancel
	w.completion = c
	w.mu.Unlock()

	w.log.Debug().Str("session_id", sessionID).Msg("polling started")
	go w.loop(pollCtx, sessionID, c)
	return c, nil
}

// StopPolling cancels the active loop, if any. An outstanding completion is
// resolved with the latest snapshot so no caller is left waiting. Calling it
// while idle is a no-op.
func (w *JobWatcher) StopPolling() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (w *JobWatcher) loop(ctx context.Context, sessionID string, c *Completion[[]model.Job]) {
	timer := time.NewTimer(0) // first query fires immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.settle(c, "stopped", nil)
			return
		case <-timer.C:
		}

		jobs, err := w.jobs.ActiveJobs(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				w.settle(c, "stopped", nil)
				return
			}
			// A failed query counts as an empty snapshot for this tick; see
			// the open question on transient failures in DESIGN.md.
			w.log.Warn().Err(err).Str("session_id", sessionID).
				Msg("job query failed; treating as no active jobs")
			metrics.IncJobPoll("error")
			jobs = nil
		} else {
			metrics.IncJobPoll("ok")
		}
		w.publish(jobs)

		if errJob := firstErrorJob(jobs); errJob != nil {
			w.log.Error().Str("job_id", errJob.ID).Str("current_msg", errJob.CurrentMsg).
				Msg("job reported error status")
			w.settle(c, "failed", fmt.Errorf("%w: %s", domain.ErrJobFailed, errJob.CurrentMsg))
			return
		}
		if len(jobs) == 0 {
			w.settle(c, "completed", nil)
			return
		}
		if jobs[0].Status == model.JobStatusWaitingUser {
			w.settle(c, "waiting_user", nil)
			return
		}

		timer.Reset(w.interval)
	}
}

// publish replaces the observable snapshot and fires the update callback
// outside the lock.
func (w *JobWatcher) publish(jobs []model.Job) {
	w.mu.Lock()
	w.snapshot = jobs
	fn := w.onUpdate
	w.mu.Unlock()
	if fn != nil {
		out := make([]model.Job, len(jobs))
		copy(out, jobs)
		fn(out)
	}
}

// settle delivers the outcome exactly once and releases the loop slot.
func (w *JobWatcher) settle(c *Completion[[]model.Job], outcome string, err error) {
	w.mu.Lock()
	snapshot := make([]model.Job, len(w.snapshot))
	copy(snapshot, w.snapshot)
	w.polling = false
	w.cancel = nil
	w.completion = nil
	w.mu.Unlock()

	if err != nil {
		c.Reject(err)
	} else {
		c.Resolve(snapshot)
	}
	metrics.IncJobWatch(outcome)
	w.log.Debug().Str("outcome", outcome).Int("jobs", len(snapshot)).Msg("polling settled")
}

func firstErrorJob(jobs []model.Job) *model.Job {
	for i := range jobs {
		if jobs[i].Status == model.JobStatusError {
			return &jobs[i]
		}
	}
	return nil
}
