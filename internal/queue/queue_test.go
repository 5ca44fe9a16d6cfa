package queue

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*miniredis.Miniredis, *Queue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return mr, New(client, "test_queue", log)
}

func TestEnqueuePop(t *testing.T) {
	_, q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "example.com")
	require.NoError(t, err)
	_, err = uuid.Parse(first.JobID)
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, "example.org")
	require.NoError(t, err)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// FIFO: LPUSH + BRPOP
	job, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, job)

	job, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "example.org", job.Domain)
}

func TestPopEmpty(t *testing.T) {
	_, q := newTestQueue(t)
	_, err := q.Pop(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestPopMalformed(t *testing.T) {
	mr, q := newTestQueue(t)
	_, err := mr.Lpush("test_queue", "{broken")
	require.NoError(t, err)

	_, err = q.Pop(context.Background(), time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoJob)
}

func TestScheduleAndPromote(t *testing.T) {
	mr, q := newTestQueue(t)
	ctx := context.Background()
	now := time.Unix(1_800_000_000, 0)

	due := Job{JobID: "a", Domain: "due.example", Attempt: 1}
	later := Job{JobID: "b", Domain: "later.example", Attempt: 1}
	require.NoError(t, q.Schedule(ctx, due, now.Add(-time.Minute)))
	require.NoError(t, q.Schedule(ctx, later, now.Add(time.Hour)))

	n, err := q.Scheduled(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	moved, err := q.PromoteDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	job, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, due, job)

	members, err := mr.ZMembers("test_queue:recheck")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Contains(t, members[0], "later.example")
}

func TestPromoteDropsMalformed(t *testing.T) {
	mr, q := newTestQueue(t)
	_, err := mr.ZAdd("test_queue:recheck", 1, "not json")
	require.NoError(t, err)

	moved, err := q.PromoteDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, moved)

	n, err := q.Scheduled(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunRechecksStopsOnCancel(t *testing.T) {
	_, q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Schedule(ctx, Job{JobID: "x", Domain: "x.example"}, time.Now().Add(-time.Second)))

	done := make(chan struct{})
	go func() {
		q.RunRechecks(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, _ := q.Len(context.Background())
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunRechecks did not stop")
	}
}
