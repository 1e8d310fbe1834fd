package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"landedcost/internal/apperr"
	"landedcost/internal/models"
	"landedcost/internal/repository"
	memdbrepository "landedcost/internal/repository/memdb"
)

const waitFor = 5 * time.Second
const tick = 2 * time.Millisecond

func newTestScheduler(t *testing.T, opts Options) (*Scheduler, *memdbrepository.Store) {
	t.Helper()
	store, err := memdbrepository.New()
	require.NoError(t, err)
	if opts.DispatchInterval == 0 {
		opts.DispatchInterval = 5 * time.Millisecond
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Millisecond
		opts.BackoffMax = 4 * time.Millisecond
	}
	opts.Metrics = NewMetrics(nil)
	s := New(store, opts)
	t.Cleanup(s.Stop)
	return s, store
}

func savingsRequest(label, priority string) SubmitRequest {
	raw, _ := json.Marshal(map[string]any{
		"workspace_id":  "w1",
		"product_ids":   []string{label},
		"configuration": map[string]any{"max_scenarios": 5},
	})
	return SubmitRequest{Type: TypeSavingsAnalysis, Priority: priority, Parameters: raw}
}

func label(t *testing.T, exec *Execution) string {
	var p SavingsAnalysisParams
	require.NoError(t, exec.Decode(&p))
	return p.ProductIDs[0]
}

func status(t *testing.T, s *Scheduler, id string) string {
	job, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return job.Status
}

func waitStatus(t *testing.T, s *Scheduler, id, want string) {
	t.Helper()
	require.Eventually(t, func() bool { return status(t, s, id) == want }, waitFor, tick, "job %s never reached %s", id, want)
}

func TestAtMostOneRunningWhenMaxConcurrentIsOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	var current, peak int32
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return map[string]bool{"ok": true}, nil
	})
	require.NoError(t, s.Start(ctx))

	var ids []string
	for _, p := range []string{PriorityLow, PriorityHigh, PriorityMedium, PriorityUrgent, PriorityLow} {
		job, err := s.Submit(ctx, savingsRequest("p", p))
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	for _, id := range ids {
		waitStatus(t, s, id, StatusCompleted)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&peak))

	res, err := s.Result(ctx, ids[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(res.Payload))
}

func TestHighPriorityJobRunsNextBehindRunningMedium(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	release := make(chan struct{})
	var mu sync.Mutex
	var order []string
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		l := label(t, exec)
		mu.Lock()
		order = append(order, l)
		mu.Unlock()
		if l == "medium" {
			<-release
		}
		return nil, nil
	})
	require.NoError(t, s.Start(ctx))

	medium, err := s.Submit(ctx, savingsRequest("medium", PriorityMedium))
	require.NoError(t, err)
	waitStatus(t, s, medium.ID, StatusRunning)

	low, err := s.Submit(ctx, savingsRequest("low", PriorityLow))
	require.NoError(t, err)
	high, err := s.Submit(ctx, savingsRequest("high", PriorityHigh))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusPending, status(t, s, high.ID))
	assert.Equal(t, 1, s.Stats().Running)

	close(release)
	waitStatus(t, s, low.ID, StatusCompleted)
	waitStatus(t, s, high.ID, StatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"medium", "high", "low"}, order)
}

func TestRetryExhaustionDeadLettersAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 2, MaxRetries: 3})
	var calls int32
	var succeed atomic.Bool
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		atomic.AddInt32(&calls, 1)
		if succeed.Load() {
			return "done", nil
		}
		return nil, errors.WithStack(&apperr.ProviderUnavailableError{Provider: "stub", Cause: errors.New("down")})
	})
	require.NoError(t, s.Start(ctx))

	job, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
	require.NoError(t, err)
	waitStatus(t, s, job.ID, StatusDeadLetter)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	dead, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, dead.RetryCount)
	assert.Equal(t, apperr.CodeProviderUnavailable, dead.ErrorCode)
	assert.Contains(t, dead.Error, "down")
	assert.Equal(t, apperr.CodeProviderUnavailable, decodeMetadata(dead.Metadata).ErrorCode)

	// only an operator rerun brings it back, with a fresh retry budget
	_, err = s.Resume(ctx, job.ID)
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))

	succeed.Store(true)
	rerun, err := s.Rerun(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rerun.RetryCount)
	waitStatus(t, s, job.ID, StatusCompleted)
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))

	_, err = s.Rerun(ctx, job.ID)
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))
}

func TestNonRetryableFailureGoesStraightToDeadLetter(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1, MaxRetries: 5})
	var calls int32
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, apperr.Invalid("configuration", "bad")
	})
	require.NoError(t, s.Start(ctx))

	job, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
	require.NoError(t, err)
	waitStatus(t, s, job.ID, StatusDeadLetter)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

type steps struct {
	Done int `json:"done"`
}

func TestPauseAndResumeKeepProgress(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	reached := make(chan struct{})
	gate := make(chan struct{})
	var processed int32
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		var cp steps
		resumed, err := exec.Checkpoint(&cp)
		if err != nil {
			return nil, err
		}
		for i := cp.Done; i < 10; i++ {
			atomic.AddInt32(&processed, 1)
			if i == 3 && !resumed {
				close(reached)
				<-gate
			}
			if err := exec.Report(ctx, Progress{Total: 10, Completed: i + 1}, steps{Done: i + 1}); err != nil {
				return nil, err
			}
		}
		return steps{Done: 10}, nil
	})
	require.NoError(t, s.Start(ctx))

	job, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
	require.NoError(t, err)
	<-reached
	_, err = s.Pause(ctx, job.ID)
	require.NoError(t, err)
	close(gate)
	waitStatus(t, s, job.ID, StatusPaused)

	paused, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, paused.Progress)

	resumed, err := s.Resume(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, paused.Progress, resumed.Progress)

	waitStatus(t, s, job.ID, StatusCompleted)
	done, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)
	assert.EqualValues(t, 10, atomic.LoadInt32(&processed))
}

func TestResumeWithdrawsPendingPauseOfRunningJob(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	reached := make(chan struct{})
	gate := make(chan struct{})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		close(reached)
		<-gate
		return nil, exec.Report(ctx, Progress{Total: 1, Completed: 1}, nil)
	})
	require.NoError(t, s.Start(ctx))

	job, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
	require.NoError(t, err)
	<-reached
	_, err = s.Pause(ctx, job.ID)
	require.NoError(t, err)
	_, err = s.Resume(ctx, job.ID)
	require.NoError(t, err)
	close(gate)
	waitStatus(t, s, job.ID, StatusCompleted)
}

func TestCancelRunningJobStopsAtNextUnit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	reached := make(chan struct{})
	gate := make(chan struct{})
	var processed int32
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		for i := 0; i < 10; i++ {
			atomic.AddInt32(&processed, 1)
			if i == 1 {
				close(reached)
				<-gate
			}
			if err := exec.Report(ctx, Progress{Total: 10, Completed: i + 1}, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	require.NoError(t, s.Start(ctx))

	job, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
	require.NoError(t, err)
	<-reached
	_, err = s.Cancel(ctx, job.ID)
	require.NoError(t, err)
	close(gate)
	waitStatus(t, s, job.ID, StatusCancelled)
	assert.EqualValues(t, 2, atomic.LoadInt32(&processed))

	_, err = s.Cancel(ctx, job.ID)
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))
}

func TestCancelAndPauseQueuedJobs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) { return nil, nil })

	// not started: jobs stay queued
	a, err := s.Submit(ctx, savingsRequest("a", PriorityLow))
	require.NoError(t, err)
	b, err := s.Submit(ctx, savingsRequest("b", PriorityLow))
	require.NoError(t, err)

	_, err = s.Cancel(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.Pause(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Stats().Queued)

	require.NoError(t, s.Start(ctx))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusCancelled, status(t, s, a.ID))
	assert.Equal(t, StatusPaused, status(t, s, b.ID))

	_, err = s.Resume(ctx, b.ID)
	require.NoError(t, err)
	waitStatus(t, s, b.ID, StatusCompleted)
}

func TestStarvationGuardPromotesOneTierPerWindow(t *testing.T) {
	ctx := context.Background()
	var clock atomic.Int64
	clock.Store(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	now := func() time.Time { return time.Unix(0, clock.Load()).UTC() }
	advance := func(d time.Duration) { clock.Add(int64(d)) }

	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1, StarvationAge: time.Minute, Now: now})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) { return nil, nil })

	job, err := s.Submit(ctx, savingsRequest("p", PriorityLow))
	require.NoError(t, err)

	n, err := s.PromoteStarved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	advance(2 * time.Minute)
	n, err = s.PromoteStarved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.PromoteStarved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	advance(2 * time.Minute)
	_, err = s.PromoteStarved(ctx)
	require.NoError(t, err)

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, PriorityLow, got.OriginalPriority)
	meta := decodeMetadata(got.Metadata)
	require.Len(t, meta.Promotions, 2)
	assert.Equal(t, PriorityMedium, meta.Promotions[0].To)
}

func TestStartRecoversInterruptedJobs(t *testing.T) {
	ctx := context.Background()
	s, store := newTestScheduler(t, Options{MaxConcurrent: 1})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) { return nil, nil })
	raw := datatypes.JSON(savingsRequest("p", PriorityMedium).Parameters)
	require.NoError(t, store.CreateJob(ctx, &models.Job{ID: "stale", Type: TypeSavingsAnalysis, Status: StatusRunning, Priority: PriorityMedium, Parameters: raw, MaxRetries: 3}))
	require.NoError(t, store.CreateJob(ctx, &models.Job{ID: "held", Type: TypeSavingsAnalysis, Status: StatusPaused, Priority: PriorityMedium, Parameters: raw, MaxRetries: 3}))

	require.NoError(t, s.Start(ctx))
	waitStatus(t, s, "stale", StatusCompleted)
	assert.Equal(t, StatusPaused, status(t, s, "held"))
}

func TestSetMaxConcurrentResizesPool(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1})
	gate := make(chan struct{})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		<-gate
		return nil, nil
	})
	require.NoError(t, s.Start(ctx))
	for i := 0; i < 3; i++ {
		_, err := s.Submit(ctx, savingsRequest("p", PriorityMedium))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return s.Stats().Running == 1 }, waitFor, tick)

	require.NoError(t, s.SetMaxConcurrent(2))
	require.Eventually(t, func() bool { return s.Stats().Running == 2 }, waitFor, tick)
	assert.Equal(t, 1, s.Stats().Queued)

	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(s.SetMaxConcurrent(0)))
	close(gate)
}

func TestSubmitValidatesRequest(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{})
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) { return nil, nil })

	_, err := s.Submit(ctx, SubmitRequest{Type: "unknown", Parameters: json.RawMessage(`{}`)})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	req := savingsRequest("p", "whenever")
	_, err = s.Submit(ctx, req)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	_, err = s.Submit(ctx, SubmitRequest{
		Type:       TypeSavingsAnalysis,
		Parameters: json.RawMessage(`{"workspace_id":"w1","product_ids":["p"],"configuration":{"max_scenarios":0}}`),
	})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	job, err := s.Submit(ctx, SubmitRequest{Type: TypeSavingsAnalysis, Parameters: savingsRequest("p", "").Parameters})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, job.Priority)
	assert.Equal(t, "w1", job.WorkspaceID)
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	s := New(nil, Options{BackoffBase: time.Second, BackoffMax: 10 * time.Second})
	assert.Equal(t, time.Second, s.backoff(0))
	assert.Equal(t, 2*time.Second, s.backoff(1))
	assert.Equal(t, 8*time.Second, s.backoff(3))
	assert.Equal(t, 10*time.Second, s.backoff(4))
	assert.Equal(t, 10*time.Second, s.backoff(60))
}

func TestBacklogBeyondMaxQueuedDrains(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Options{MaxConcurrent: 1, MaxQueued: 1})
	var ran atomic.Int32
	s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
		ran.Add(1)
		return nil, nil
	})

	ids := make([]string, 0, 4)
	for _, l := range []string{"a", "b", "c", "d"} {
		job, err := s.Submit(ctx, savingsRequest(l, PriorityMedium))
		require.NoError(t, err)
		assert.Equal(t, StatusPending, job.Status)
		ids = append(ids, job.ID)
	}
	assert.Equal(t, 1, s.Stats().Queued)

	s.mu.Lock()
	err := s.admit(&models.Job{ID: "extra", Priority: PriorityMedium, CreatedAt: time.Now()})
	s.mu.Unlock()
	var limit *apperr.ConcurrencyLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, apperr.CodeConcurrencyLimit, apperr.CodeOf(err))

	require.NoError(t, s.Start(ctx))
	for _, id := range ids {
		waitStatus(t, s, id, StatusCompleted)
	}
	assert.Equal(t, int32(4), ran.Load())
}

// claimFirstStore lets a test run a dispatch right before a chosen transition reaches the store.
type claimFirstStore struct {
	*memdbrepository.Store
	to     string
	target atomic.Value
	once   sync.Once
	before func()
}

func (c *claimFirstStore) TransitionJob(ctx context.Context, id string, from []string, to string, update repository.JobUpdate) (*models.Job, bool, error) {
	if want, _ := c.target.Load().(string); want == id && to == c.to {
		c.once.Do(c.before)
	}
	return c.Store.TransitionJob(ctx, id, from, to, update)
}

func TestControlFollowsJobClaimedMidRequest(t *testing.T) {
	for _, tc := range []struct {
		name string
		to   string
		want string
	}{
		{"pause", StatusPaused, StatusPaused},
		{"cancel", StatusCancelled, StatusCancelled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			mem, err := memdbrepository.New()
			require.NoError(t, err)
			store := &claimFirstStore{Store: mem, to: tc.to}
			s := New(store, Options{MaxConcurrent: 1, DispatchInterval: time.Hour, Metrics: NewMetrics(nil)})
			t.Cleanup(s.Stop)
			store.before = func() {
				require.NoError(t, s.SetMaxConcurrent(2))
				s.dispatch()
			}

			gate := make(chan struct{})
			s.Register(TypeSavingsAnalysis, func(ctx context.Context, exec *Execution) (any, error) {
				<-gate
				return nil, exec.Report(ctx, Progress{Total: 2, Completed: 1}, nil)
			})
			require.NoError(t, s.Start(ctx))

			first, err := s.Submit(ctx, savingsRequest("a", PriorityMedium))
			require.NoError(t, err)
			waitStatus(t, s, first.ID, StatusRunning)
			second, err := s.Submit(ctx, savingsRequest("b", PriorityMedium))
			require.NoError(t, err)
			store.target.Store(second.ID)

			var got *models.Job
			if tc.to == StatusPaused {
				got, err = s.Pause(ctx, second.ID)
			} else {
				got, err = s.Cancel(ctx, second.ID)
			}
			require.NoError(t, err)
			assert.Equal(t, StatusRunning, got.Status)

			close(gate)
			waitStatus(t, s, first.ID, StatusCompleted)
			waitStatus(t, s, second.ID, tc.want)
		})
	}
}
