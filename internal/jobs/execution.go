package jobs

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"landedcost/internal/models"
)

var (
	// ErrPauseRequested and ErrCancelRequested are returned by Execution.Report when an operator asked the
	// job to stop. Handlers return them unchanged.
	ErrPauseRequested  = errors.New("job pause requested")
	ErrCancelRequested = errors.New("job cancel requested")
)

// Handler runs one job. The returned value is stored as the job result.
type Handler func(ctx context.Context, exec *Execution) (any, error)

// control carries operator requests to a running job. Requests only take effect at Report.
type control struct {
	mu     sync.Mutex
	pause  bool
	cancel bool
}

func (c *control) request(pause bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pause {
		c.pause = true
	} else {
		c.cancel = true
	}
}

// withdrawPause clears a pause that the job has not acted on yet.
func (c *control) withdrawPause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.pause
	c.pause = false
	return had
}

func (c *control) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel {
		return ErrCancelRequested
	}
	if c.pause {
		return ErrPauseRequested
	}
	return nil
}

// Execution is the running job as seen by its handler. Only the owning worker writes its progress.
type Execution struct {
	Job models.Job

	s        *Scheduler
	ctl      *control
	mu       sync.Mutex
	meta     Metadata
	progress int
}

// Decode unmarshals the job parameters into v.
func (e *Execution) Decode(v any) error {
	return errors.Wrap(json.Unmarshal(e.Job.Parameters, v), "decode job parameters")
}

// Checkpoint loads the state saved by a previous run into v. It reports false when there is none.
func (e *Execution) Checkpoint(v any) (bool, error) {
	e.mu.Lock()
	raw := e.meta.Checkpoint
	e.mu.Unlock()
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrap(err, "decode checkpoint")
	}
	return true, nil
}

// Report persists progress and an optional checkpoint, then returns ErrPauseRequested or
// ErrCancelRequested if the job should stop here. Progress never moves backwards.
func (e *Execution) Report(ctx context.Context, p Progress, checkpoint any) error {
	e.mu.Lock()
	e.meta.Progress = p
	if checkpoint != nil {
		raw, err := json.Marshal(checkpoint)
		if err != nil {
			e.mu.Unlock()
			return errors.Wrap(err, "encode checkpoint")
		}
		e.meta.Checkpoint = raw
	}
	if pct := p.Percent(); pct > e.progress {
		e.progress = pct
	}
	progress, meta := e.progress, e.meta.encode()
	e.mu.Unlock()

	if err := e.s.repo.UpdateJobProgress(ctx, e.Job.ID, progress, meta); err != nil {
		return errors.Wrap(err, "update job progress")
	}
	e.s.notify(e.Job.ID)
	return e.ctl.check()
}

func (e *Execution) snapshot() (int, Metadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress, e.meta
}
