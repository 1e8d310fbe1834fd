package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"landedcost/internal/apperr"
	"landedcost/internal/models"
	"landedcost/internal/repository"
)

type Options struct {
	MaxConcurrent int
	// MaxQueued bounds the in-memory queue; submissions beyond it stay pending in the store and are
	// admitted as room frees up. Zero means unbounded.
	MaxQueued        int
	MaxRetries       int
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	StarvationAge    time.Duration
	DispatchInterval time.Duration

	Metrics *Metrics
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// Scheduler admits pending jobs into at most MaxConcurrent workers, highest priority first.
// The queue, the running set and the concurrency limit are guarded by mu; every admit, finish, pause and
// cancel decision is taken under it.
type Scheduler struct {
	repo    repository.JobRepository
	opts    Options
	log     *zap.Logger
	metrics *Metrics

	mu            sync.Mutex
	handlers      map[string]Handler
	queue         *readyQueue
	running       map[string]*control
	maxConcurrent int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	wake          chan struct{}

	subMu sync.Mutex
	subs  map[string]map[chan struct{}]struct{}
}

func New(repo repository.JobRepository, opts Options) *Scheduler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 5 * time.Second
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = opts.BackoffBase
	}
	if opts.DispatchInterval <= 0 {
		opts.DispatchInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		repo:          repo,
		opts:          opts,
		log:           log.Named("scheduler"),
		metrics:       opts.Metrics,
		handlers:      map[string]Handler{},
		queue:         newReadyQueue(),
		running:       map[string]*control{},
		maxConcurrent: opts.MaxConcurrent,
		wake:          make(chan struct{}, 1),
		subs:          map[string]map[chan struct{}]struct{}{},
	}
}

func (s *Scheduler) Register(typ string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[typ] = h
}

type SubmitRequest struct {
	Type       string          `json:"type"`
	Priority   string          `json:"priority"`
	Parameters json.RawMessage `json:"parameters"`
	MaxRetries int             `json:"max_retries,omitempty"`
}

// Submit validates and persists a job, then queues it. It returns as soon as the job is stored.
func (s *Scheduler) Submit(ctx context.Context, req SubmitRequest) (*models.Job, error) {
	req.Type = strings.TrimSpace(req.Type)
	req.Priority = strings.ToLower(strings.TrimSpace(req.Priority))
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if !ValidPriority(req.Priority) {
		return nil, apperr.Invalid("priority", "unknown priority %q", req.Priority)
	}
	s.mu.Lock()
	_, known := s.handlers[req.Type]
	s.mu.Unlock()
	if !known {
		return nil, apperr.Invalid("type", "unknown job type %q", req.Type)
	}
	params, err := DecodeParameters(req.Type, req.Parameters)
	if err != nil {
		return nil, err
	}
	raw, err := params.Encode()
	if err != nil {
		return nil, err
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.opts.MaxRetries
	}

	job := &models.Job{
		ID:               s.opts.NewID(),
		Type:             req.Type,
		Status:           StatusPending,
		Priority:         req.Priority,
		OriginalPriority: req.Priority,
		WorkspaceID:      params.WorkspaceID(),
		Parameters:       raw,
		Metadata:         Metadata{}.encode(),
		MaxRetries:       maxRetries,
		CreatedAt:        s.opts.Now(),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	s.metrics.transition(job.Type, "", StatusPending)
	s.log.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("job_type", job.Type),
		zap.String("priority", job.Priority),
	)
	s.enqueue(job)
	return job, nil
}

func (s *Scheduler) enqueue(job *models.Job) {
	s.mu.Lock()
	err := s.admit(job)
	s.gaugesLocked()
	s.mu.Unlock()
	if err != nil {
		s.log.Info("job left in backlog", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.kick()
}

// admit must be called with mu held.
func (s *Scheduler) admit(job *models.Job) error {
	if _, ok := s.running[job.ID]; ok || s.queue.contains(job.ID) {
		return nil
	}
	if s.opts.MaxQueued > 0 && s.queue.len() >= s.opts.MaxQueued {
		return errors.WithStack(&apperr.ConcurrencyLimitError{Running: len(s.running), Limit: s.opts.MaxQueued})
	}
	s.queue.add(job.ID, job.Priority, job.CreatedAt, s.opts.Now(), job.NextRunAt)
	return nil
}

func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start recovers persisted jobs and begins dispatching. Jobs left running by a previous process are
// returned to pending; paused jobs stay paused.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if err := s.recoverJobs(ctx); err != nil {
		return err
	}
	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *Scheduler) recoverJobs(ctx context.Context) error {
	stale, err := s.listAll(ctx, StatusRunning)
	if err != nil {
		return errors.Wrap(err, "list running jobs")
	}
	for _, job := range stale {
		if _, ok, err := s.repo.TransitionJob(ctx, job.ID, []string{StatusRunning}, StatusPending, repository.JobUpdate{}); err != nil {
			return errors.Wrapf(err, "recover job %s", job.ID)
		} else if ok {
			s.metrics.transition(job.Type, StatusRunning, StatusPending)
			s.log.Warn("job recovered after restart", zap.String("job_id", job.ID), zap.String("job_type", job.Type))
		}
	}
	return s.refill(ctx)
}

// refill admits pending jobs from the store that are not queued yet, oldest first.
func (s *Scheduler) refill(ctx context.Context) error {
	pending, err := s.listAll(ctx, StatusPending)
	if err != nil {
		return errors.Wrap(err, "list pending jobs")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range pending {
		if err := s.admit(&pending[i]); err != nil {
			break
		}
	}
	s.gaugesLocked()
	return nil
}

func (s *Scheduler) listAll(ctx context.Context, status string) ([]models.Job, error) {
	asc := true
	var out []models.Job
	for offset := 0; ; offset += 500 {
		items, err := s.repo.ListJobs(ctx, repository.ListJobsParams{
			Statuses: []string{status},
			Limit:    500,
			Offset:   offset,
			OrderBy:  "created_at",
			Asc:      &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < 500 {
			return out, nil
		}
	}
}

// Stop interrupts running jobs and waits for the workers. Interrupted jobs go back to pending.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.DispatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		case <-ticker.C:
			if s.opts.MaxQueued > 0 {
				if err := s.refill(s.ctx); err != nil && s.ctx.Err() == nil {
					s.log.Warn("refill failed", zap.Error(err))
				}
			}
		}
		s.dispatch()
	}
}

func (s *Scheduler) dispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	now := s.opts.Now()
	s.queue.release(now)
	for len(s.running) < s.maxConcurrent {
		item := s.queue.pop()
		if item == nil {
			break
		}
		job, ok, err := s.repo.TransitionJob(s.ctx, item.id, []string{StatusPending}, StatusRunning, repository.JobUpdate{
			StartedAt:      &now,
			ClearNextRunAt: true,
		})
		if err != nil {
			s.log.Error("claim job failed", zap.String("job_id", item.id), zap.Error(err))
			s.queue.add(item.id, item.priority, item.createdAt, now, nil)
			break
		}
		if !ok {
			// paused or cancelled while queued, or claimed elsewhere
			continue
		}
		s.metrics.transition(job.Type, StatusPending, StatusRunning)
		s.notify(job.ID)
		ctl := &control{}
		s.running[job.ID] = ctl
		s.wg.Add(1)
		go s.execute(job, ctl)
	}
	s.gaugesLocked()
}

func (s *Scheduler) gaugesLocked() {
	s.metrics.gauges(len(s.running), s.queue.len())
}

func (s *Scheduler) execute(job *models.Job, ctl *control) {
	defer s.wg.Done()
	start := time.Now()
	exec := &Execution{Job: *job, s: s, ctl: ctl, meta: decodeMetadata(job.Metadata), progress: job.Progress}
	s.log.Info("job started",
		zap.String("job_id", job.ID),
		zap.String("job_type", job.Type),
		zap.String("priority", job.Priority),
		zap.Int("retry_count", job.RetryCount),
	)

	result, err := s.invoke(exec)
	outcome := s.finish(job, exec, result, err)
	s.metrics.observe(job.Type, outcome, time.Since(start).Seconds())

	s.mu.Lock()
	delete(s.running, job.ID)
	s.gaugesLocked()
	s.mu.Unlock()
	s.notify(job.ID)
	s.kick()
}

func (s *Scheduler) invoke(exec *Execution) (result any, err error) {
	s.mu.Lock()
	h := s.handlers[exec.Job.Type]
	ctx := s.ctx
	s.mu.Unlock()
	if h == nil {
		return nil, apperr.Invalid("type", "no handler for job type %q", exec.Job.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job handler panic: %v", r)
		}
	}()
	return h(ctx, exec)
}

// finish records how the execution ended and returns the outcome label.
func (s *Scheduler) finish(job *models.Job, exec *Execution, result any, runErr error) string {
	ctx := context.WithoutCancel(s.ctx)
	_, meta := exec.snapshot()
	now := s.opts.Now()
	log := s.log.With(zap.String("job_id", job.ID), zap.String("job_type", job.Type))

	switch {
	case runErr == nil:
		if err := s.complete(ctx, job, meta, result, now); err != nil {
			runErr = err
			break
		}
		log.Info("job completed")
		return StatusCompleted
	case errors.Is(runErr, ErrPauseRequested):
		s.move(ctx, job, StatusRunning, StatusPaused, repository.JobUpdate{Metadata: meta.encode()})
		log.Info("job paused", zap.Int("completed", meta.Progress.Completed))
		return StatusPaused
	case errors.Is(runErr, ErrCancelRequested):
		s.move(ctx, job, StatusRunning, StatusCancelled, repository.JobUpdate{Metadata: meta.encode(), CompletedAt: &now})
		log.Info("job cancelled")
		return StatusCancelled
	case s.ctx.Err() != nil && errors.Is(runErr, context.Canceled):
		s.move(ctx, job, StatusRunning, StatusPending, repository.JobUpdate{Metadata: meta.encode()})
		log.Info("job interrupted by shutdown")
		return "interrupted"
	}
	return s.fail(ctx, job, meta, runErr, now)
}

func (s *Scheduler) complete(ctx context.Context, job *models.Job, meta Metadata, result any, now time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode job result")
	}
	if err := s.repo.SaveJobResult(ctx, &models.JobResult{JobID: job.ID, Type: job.Type, Payload: payload, CreatedAt: now}); err != nil {
		return errors.Wrap(err, "save job result")
	}
	full := 100
	meta.Checkpoint = nil
	s.move(ctx, job, StatusRunning, StatusCompleted, repository.JobUpdate{Progress: &full, Metadata: meta.encode(), CompletedAt: &now})
	return nil
}

func (s *Scheduler) move(ctx context.Context, job *models.Job, from, to string, update repository.JobUpdate) (*models.Job, bool) {
	updated, ok, err := s.repo.TransitionJob(ctx, job.ID, []string{from}, to, update)
	if err != nil {
		s.log.Error("job transition failed",
			zap.String("job_id", job.ID), zap.String("from", from), zap.String("status", to), zap.Error(err))
		return nil, false
	}
	if ok {
		s.metrics.transition(job.Type, from, to)
		s.notify(job.ID)
	}
	return updated, ok
}

// fail records a failed attempt, then either schedules a retry with exponential backoff or dead-letters
// the job. Retries re-run the same parameters.
func (s *Scheduler) fail(ctx context.Context, job *models.Job, meta Metadata, runErr error, now time.Time) string {
	code := apperr.CodeOf(runErr)
	msg := runErr.Error()
	attempts := job.RetryCount + 1
	meta.ErrorCode = code
	failed, ok := s.move(ctx, job, StatusRunning, StatusFailed, repository.JobUpdate{
		Error:      &msg,
		ErrorCode:  &code,
		RetryCount: &attempts,
		Metadata:   meta.encode(),
	})
	if !ok {
		return StatusFailed
	}
	log := s.log.With(
		zap.String("job_id", job.ID),
		zap.String("job_type", job.Type),
		zap.Int("retry_count", attempts),
		zap.String("error_code", code),
		zap.Error(runErr),
	)

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if apperr.IsRetryable(runErr) && attempts < maxRetries {
		next := now.Add(s.backoff(job.RetryCount))
		if _, ok := s.move(ctx, job, StatusFailed, StatusPending, repository.JobUpdate{NextRunAt: &next}); ok {
			failed.NextRunAt = &next
			s.mu.Lock()
			s.queue.add(job.ID, failed.Priority, job.CreatedAt, now, &next)
			s.gaugesLocked()
			s.mu.Unlock()
			log.Warn("job failed, retry scheduled", zap.Time("next_run_at", next))
		}
		return "retry"
	}
	s.move(ctx, job, StatusFailed, StatusDeadLetter, repository.JobUpdate{CompletedAt: &now})
	log.Error("job dead-lettered")
	return StatusDeadLetter
}

// backoff is BackoffBase * 2^retryCount, capped at BackoffMax.
func (s *Scheduler) backoff(retryCount int) time.Duration {
	d := s.opts.BackoffBase
	for i := 0; i < retryCount; i++ {
		if d >= s.opts.BackoffMax/2 {
			return s.opts.BackoffMax
		}
		d *= 2
	}
	if d > s.opts.BackoffMax {
		return s.opts.BackoffMax
	}
	return d
}

func (s *Scheduler) load(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.NotFound("job", id)
	}
	return job, nil
}

func (s *Scheduler) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.load(ctx, id)
}

func (s *Scheduler) Result(ctx context.Context, id string) (*models.JobResult, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusCompleted {
		return nil, apperr.Conflict("job", id, job.Status, StatusCompleted)
	}
	res, err := s.repo.GetJobResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.NotFound("job result", id)
	}
	return res, nil
}

func (s *Scheduler) runningControl(id string) *control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[id]
}

func (s *Scheduler) dequeue(id string) {
	s.mu.Lock()
	s.queue.remove(id)
	s.gaugesLocked()
	s.mu.Unlock()
}

// Pause stops a queued job at once and asks a running one to stop after its current unit of work.
func (s *Scheduler) Pause(ctx context.Context, id string) (*models.Job, error) {
	return s.applyControl(ctx, id, StatusPaused, s.tryPause)
}

func (s *Scheduler) tryPause(ctx context.Context, job *models.Job) (*models.Job, bool, error) {
	switch job.Status {
	case StatusPending:
		updated, ok, err := s.repo.TransitionJob(ctx, job.ID, []string{StatusPending}, StatusPaused, repository.JobUpdate{ClearNextRunAt: true})
		if err != nil || !ok {
			return nil, false, err
		}
		s.metrics.transition(job.Type, StatusPending, StatusPaused)
		s.dequeue(job.ID)
		s.notify(job.ID)
		return updated, true, nil
	case StatusRunning:
		if ctl := s.runningControl(job.ID); ctl != nil {
			ctl.request(true)
			return job, true, nil
		}
	}
	return nil, false, nil
}

// applyControl applies try to the job, and once more to a fresh read when the job changed status underneath,
// e.g. a dispatch claimed it between the read and the transition.
func (s *Scheduler) applyControl(ctx context.Context, id, to string, try func(context.Context, *models.Job) (*models.Job, bool, error)) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if job, err = s.load(ctx, id); err != nil {
				return nil, err
			}
		}
		updated, done, err := try(ctx, job)
		if err != nil {
			return nil, err
		}
		if done {
			return updated, nil
		}
	}
	return nil, s.conflict(ctx, id, job.Status, to)
}

// Resume re-queues a paused job with its progress and checkpoint intact. A pause that a running job has
// not reached yet is withdrawn instead.
func (s *Scheduler) Resume(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case StatusPaused:
		updated, ok, err := s.repo.TransitionJob(ctx, id, []string{StatusPaused}, StatusPending, repository.JobUpdate{})
		if err != nil {
			return nil, err
		}
		if ok {
			s.metrics.transition(job.Type, StatusPaused, StatusPending)
			s.enqueue(updated)
			s.notify(id)
			return updated, nil
		}
	case StatusRunning:
		if ctl := s.runningControl(id); ctl != nil && ctl.withdrawPause() {
			return job, nil
		}
	}
	return nil, s.conflict(ctx, id, job.Status, StatusPending)
}

// Cancel ends a queued or paused job at once; a running job stops after its current unit of work.
func (s *Scheduler) Cancel(ctx context.Context, id string) (*models.Job, error) {
	return s.applyControl(ctx, id, StatusCancelled, s.tryCancel)
}

func (s *Scheduler) tryCancel(ctx context.Context, job *models.Job) (*models.Job, bool, error) {
	switch job.Status {
	case StatusPending, StatusPaused:
		now := s.opts.Now()
		updated, ok, err := s.repo.TransitionJob(ctx, job.ID, []string{StatusPending, StatusPaused}, StatusCancelled, repository.JobUpdate{
			CompletedAt:    &now,
			ClearNextRunAt: true,
		})
		if err != nil || !ok {
			return nil, false, err
		}
		s.metrics.transition(job.Type, job.Status, StatusCancelled)
		s.dequeue(job.ID)
		s.notify(job.ID)
		s.log.Info("job cancelled", zap.String("job_id", job.ID))
		return updated, true, nil
	case StatusRunning:
		if ctl := s.runningControl(job.ID); ctl != nil {
			ctl.request(false)
			return job, true, nil
		}
	}
	return nil, false, nil
}

// Rerun puts a dead-lettered job back to pending with a fresh retry budget and no checkpoint.
func (s *Scheduler) Rerun(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusDeadLetter {
		return nil, apperr.Conflict("job", id, job.Status, StatusPending)
	}
	zero := 0
	empty := ""
	priority := job.OriginalPriority
	if priority == "" {
		priority = job.Priority
	}
	updated, ok, err := s.repo.TransitionJob(ctx, id, []string{StatusDeadLetter}, StatusPending, repository.JobUpdate{
		Progress:       &zero,
		RetryCount:     &zero,
		Error:          &empty,
		ErrorCode:      &empty,
		Priority:       &priority,
		Metadata:       Metadata{}.encode(),
		ClearNextRunAt: true,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflict(ctx, id, job.Status, StatusPending)
	}
	s.metrics.transition(job.Type, StatusDeadLetter, StatusPending)
	s.log.Info("job rerun requested", zap.String("job_id", id))
	s.enqueue(updated)
	s.notify(id)
	return updated, nil
}

func (s *Scheduler) conflict(ctx context.Context, id, from, to string) error {
	if current, err := s.repo.GetJob(ctx, id); err == nil && current != nil {
		from = current.Status
	}
	return apperr.Conflict("job", id, from, to)
}

// SetMaxConcurrent resizes the worker pool. Shrinking never interrupts running jobs.
func (s *Scheduler) SetMaxConcurrent(n int) error {
	if n < 1 {
		return apperr.Invalid("max_concurrent", "must be >= 1, got %d", n)
	}
	s.mu.Lock()
	changed := s.maxConcurrent != n
	s.maxConcurrent = n
	s.mu.Unlock()
	if changed {
		s.log.Info("max concurrency changed", zap.Int("max_concurrent", n))
	}
	s.kick()
	return nil
}

// PromoteStarved raises every queued job that has waited StarvationAge by one priority tier and records
// the promotion in its metadata.
func (s *Scheduler) PromoteStarved(ctx context.Context) (int, error) {
	if s.opts.StarvationAge <= 0 {
		return 0, nil
	}
	type candidate struct{ id, from string }
	s.mu.Lock()
	now := s.opts.Now()
	var candidates []candidate
	for _, item := range s.queue.starved(now, s.opts.StarvationAge) {
		candidates = append(candidates, candidate{id: item.id, from: item.priority})
	}
	s.mu.Unlock()

	promoted := 0
	for _, c := range candidates {
		job, err := s.repo.GetJob(ctx, c.id)
		if err != nil {
			return promoted, err
		}
		if job == nil || job.Status != StatusPending {
			continue
		}
		to := nextPriority(job.Priority)
		if to == job.Priority {
			continue
		}
		meta := decodeMetadata(job.Metadata)
		meta.Promotions = append(meta.Promotions, Promotion{From: job.Priority, To: to, At: now})
		ok, err := s.repo.UpdateJobPriority(ctx, c.id, to, meta.encode())
		if err != nil {
			return promoted, err
		}
		if !ok {
			continue
		}
		s.mu.Lock()
		s.queue.setPriority(c.id, to, now)
		s.mu.Unlock()
		s.metrics.promoted()
		promoted++
		s.log.Info("job promoted by starvation guard",
			zap.String("job_id", c.id),
			zap.String("from", job.Priority),
			zap.String("priority", to),
		)
	}
	if promoted > 0 {
		s.kick()
	}
	return promoted, nil
}

type Stats struct {
	Running       int `json:"running"`
	Queued        int `json:"queued"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Running: len(s.running), Queued: s.queue.len(), MaxConcurrent: s.maxConcurrent}
}

// Subscribe returns a channel that receives a signal whenever job id changes. Signals coalesce.
func (s *Scheduler) Subscribe(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	if s.subs[id] == nil {
		s.subs[id] = map[chan struct{}]struct{}{}
	}
	s.subs[id][ch] = struct{}{}
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		delete(s.subs[id], ch)
		if len(s.subs[id]) == 0 {
			delete(s.subs, id)
		}
		s.subMu.Unlock()
	}
}

func (s *Scheduler) notify(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
