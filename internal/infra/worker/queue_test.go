package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
)

// gatedJobs hands out jobs that report their start and block until released.
type gatedJobs struct {
	started chan int64
	mu      sync.Mutex
	release map[int64]chan struct{}
}

func newGatedJobs() *gatedJobs {
	return &gatedJobs{started: make(chan int64, 64), release: map[int64]chan struct{}{}}
}

func (g *gatedJobs) job(sessionID int64) *model.Job {
	ch := make(chan struct{})
	g.mu.Lock()
	g.release[sessionID] = ch
	g.mu.Unlock()
	return model.NewJob(sessionID, model.ResourceEbay, time.Now(), func(ctx context.Context) error {
		g.started <- sessionID
		<-ch
		return nil
	})
}

func (g *gatedJobs) finish(sessionID int64) {
	g.mu.Lock()
	ch := g.release[sessionID]
	g.mu.Unlock()
	close(ch)
}

func (g *gatedJobs) nextStarted(t *testing.T) int64 {
	t.Helper()
	select {
	case id := <-g.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a job to start")
		return 0
	}
}

func (g *gatedJobs) assertNoStart(t *testing.T) {
	t.Helper()
	select {
	case id := <-g.started:
		t.Fatalf("job %d started unexpectedly", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func newQueue(max int) *ResourceQueue {
	return NewResourceQueue(context.Background(), "ebay", max, 0, nil)
}

func TestSubmitAdmission(t *testing.T) {
	q := newQueue(3)
	g := newGatedJobs()

	for i := int64(1); i <= 3; i++ {
		adm, err := q.Submit(g.job(i))
		require.NoError(t, err)
		assert.Equal(t, model.Admission{Status: model.AdmissionRunning}, adm)
	}
	for i := int64(4); i <= 5; i++ {
		adm, err := q.Submit(g.job(i))
		require.NoError(t, err)
		assert.Equal(t, model.Admission{Status: model.AdmissionQueued, Position: int(i - 3)}, adm)
	}

	st := q.Stats()
	assert.Equal(t, 3, st.Running)
	assert.Equal(t, 2, st.Queued)
	assert.Equal(t, 3, st.MaxConcurrency)

	for i := int64(1); i <= 5; i++ {
		g.finish(i)
	}
	q.Wait()
	assert.Equal(t, model.QueueStats{Name: "ebay", MaxConcurrency: 3}, q.Stats())
}

func TestCompletionPromotesHeadInFIFOOrder(t *testing.T) {
	q := newQueue(1)
	g := newGatedJobs()

	for i := int64(1); i <= 4; i++ {
		_, err := q.Submit(g.job(i))
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), g.nextStarted(t))
	g.assertNoStart(t)

	for want := int64(2); want <= 4; want++ {
		g.finish(want - 1)
		assert.Equal(t, want, g.nextStarted(t))
	}
	g.finish(4)
	q.Wait()
}

func TestRunningNeverExceedsMax(t *testing.T) {
	const max = 3
	q := newQueue(max)

	var current, peak, ran int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := q.Submit(model.NewJob(id, model.ResourceEbay, time.Now(), func(ctx context.Context) error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				if st := q.Stats(); st.Running > max || st.Running < 0 {
					t.Errorf("running out of bounds: %d", st.Running)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&ran, 1)
				return nil
			}))
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()
	q.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(max))
	assert.Equal(t, int32(50), atomic.LoadInt32(&ran))
	assert.Equal(t, 0, q.Stats().Running)
}

func TestCancelRemovesOnlyMatchingPendingJobs(t *testing.T) {
	q := newQueue(1)
	g := newGatedJobs()

	_, _ = q.Submit(g.job(1))
	require.Equal(t, int64(1), g.nextStarted(t))

	// session 2 has two pending jobs
	_, _ = q.Submit(g.job(3))
	j2 := g.job(2)
	_, _ = q.Submit(j2)
	_, _ = q.Submit(g.job(4))
	_, _ = q.Submit(model.NewJob(2, model.ResourceEbay, time.Now(), j2.Handler))

	assert.True(t, q.IsQueued(2))
	assert.True(t, q.Cancel(2))
	assert.False(t, q.IsQueued(2))
	assert.False(t, q.Cancel(2), "second cancel has nothing to remove")
	assert.False(t, q.Cancel(99))
	assert.False(t, q.Cancel(1), "running job is not pending")
	assert.Equal(t, 2, q.Stats().Queued)

	g.finish(1)
	assert.Equal(t, int64(3), g.nextStarted(t))
	g.finish(3)
	assert.Equal(t, int64(4), g.nextStarted(t))
	g.finish(4)
	q.Wait()
}

func TestFailingJobsDoNotStarveQueue(t *testing.T) {
	q := newQueue(1)
	var ran atomic.Bool

	_, err := q.Submit(model.NewJob(1, model.ResourceEbay, time.Now(), func(context.Context) error {
		return errors.New("scraper exploded")
	}))
	require.NoError(t, err)
	_, err = q.Submit(model.NewJob(2, model.ResourceEbay, time.Now(), func(context.Context) error {
		panic("boom")
	}))
	require.NoError(t, err)
	_, err = q.Submit(model.NewJob(3, model.ResourceEbay, time.Now(), func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	require.NoError(t, err)

	q.Wait()
	assert.True(t, ran.Load())
	assert.Equal(t, 0, q.Stats().Running)
}

func TestJobTimeoutReachesHandler(t *testing.T) {
	q := NewResourceQueue(context.Background(), "global", 1, 10*time.Millisecond, nil)
	errc := make(chan error, 1)
	_, err := q.Submit(model.NewJob(1, model.ResourceGlobal, time.Now(), func(ctx context.Context) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, err)
	q.Wait()
	assert.ErrorIs(t, <-errc, context.DeadlineExceeded)
}

func TestSubmitRejectsInvalidAndClosed(t *testing.T) {
	q := newQueue(1)
	_, err := q.Submit(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = q.Submit(&model.Job{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	g := newGatedJobs()
	_, _ = q.Submit(g.job(1))
	_, _ = q.Submit(g.job(2))
	require.Equal(t, int64(1), g.nextStarted(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded, "running job still holds its slot")

	_, err = q.Submit(g.job(3))
	assert.ErrorIs(t, err, domain.ErrQueueClosed)

	g.finish(1)
	require.NoError(t, q.Close(context.Background()))
	g.assertNoStart(t)
}

func TestRunningJobOutlivesParentCancel(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	q := NewResourceQueue(parent, "ebay", 1, 0, nil)

	release := make(chan struct{})
	errc := make(chan error, 1)
	_, err := q.Submit(model.NewJob(1, model.ResourceEbay, time.Now(), func(ctx context.Context) error {
		<-release
		errc <- ctx.Err()
		return nil
	}))
	require.NoError(t, err)

	// shutdown signal arrives while the job is still working
	stop()
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	assert.NoError(t, <-errc, "job context must stay usable for delivery during the drain")
}

func TestCloseCancelsJobsAfterDrainDeadline(t *testing.T) {
	q := newQueue(1)
	errc := make(chan error, 1)
	_, err := q.Submit(model.NewJob(1, model.ResourceEbay, time.Now(), func(ctx context.Context) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("running job was not cancelled after the drain deadline")
	}
	q.Wait()
}

func TestCloseNotifiesDroppedJobs(t *testing.T) {
	q := newQueue(1)
	g := newGatedJobs()

	running := g.job(1)
	running.OnDrop = func(context.Context) { t.Error("running job must not be reported as dropped") }
	_, _ = q.Submit(running)
	require.Equal(t, int64(1), g.nextStarted(t))

	var mu sync.Mutex
	var dropped []int64
	for id := int64(2); id <= 3; id++ {
		j := g.job(id)
		j.OnDrop = func(ctx context.Context) {
			require.NoError(t, ctx.Err())
			mu.Lock()
			dropped = append(dropped, j.SessionID)
			mu.Unlock()
		}
		_, err := q.Submit(j)
		require.NoError(t, err)
	}
	// a panicking hook does not stop the others
	bad := g.job(4)
	bad.OnDrop = func(context.Context) { panic("hook") }
	_, _ = q.Submit(bad)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	mu.Lock()
	assert.Equal(t, []int64{2, 3}, dropped)
	mu.Unlock()
	assert.Equal(t, 0, q.Stats().Queued)

	g.finish(1)
	q.Wait()
	g.assertNoStart(t)
}
