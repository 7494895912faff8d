package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-interviewer-be/pkg/interview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *SessionRepository {
	return NewSessionRepository(time.Hour, time.Minute)
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	r := newRepo()

	s, err := r.Create("alice", 4, interview.DifficultyEasy)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, interview.StatusOngoing, s.Status)
	assert.Equal(t, 4, s.MaxRounds)

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	// Snapshots are private copies.
	got.PastQuestions = append(got.PastQuestions, "mutated")
	again, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Empty(t, again.PastQuestions)
}

func TestSessionRepository_GetUnknown(t *testing.T) {
	_, err := newRepo().Get("missing")
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

func TestSessionRepository_DuplicateCandidate(t *testing.T) {
	r := newRepo()

	first, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	_, err = r.Create("alice", 3, interview.DifficultyEasy)
	assert.ErrorIs(t, err, interview.ErrDuplicateSession)

	_, err = r.Create("bob", 3, interview.DifficultyEasy)
	assert.NoError(t, err)

	r.Remove(first.ID)
	_, err = r.Create("alice", 3, interview.DifficultyEasy)
	assert.NoError(t, err)
}

func TestSessionRepository_EndingFreesCandidate(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	lease, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	next := lease.Session()
	next.End()
	require.NoError(t, lease.Commit(next))
	lease.Release()

	_, err = r.Create("alice", 3, interview.DifficultyEasy)
	assert.NoError(t, err)

	// The ended session stays readable until removed.
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.Ended())
}

func TestSessionRepository_RemoveIsIdempotent(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	r.Remove(s.ID)
	r.Remove(s.ID)
	r.Remove("never-existed")

	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
	assert.Equal(t, 0, r.Count())
}

func TestSessionRepository_Active(t *testing.T) {
	r := newRepo()
	a, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)
	b, err := r.Create("bob", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	lease, err := r.Lease(context.Background(), b.ID)
	require.NoError(t, err)
	ended := lease.Session()
	ended.End()
	require.NoError(t, lease.Commit(ended))
	lease.Release()

	active := r.Active()
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
	assert.Equal(t, 2, r.Count())
}

func TestSessionRepository_LeaseSerializesTurns(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 100, interview.DifficultyEasy)
	require.NoError(t, err)

	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := r.Lease(context.Background(), s.ID)
			if !assert.NoError(t, err) {
				return
			}
			defer lease.Release()

			assert.Equal(t, int32(1), atomic.AddInt32(&inside, 1))
			next := lease.Session()
			next.Round++
			time.Sleep(time.Millisecond)
			assert.NoError(t, lease.Commit(next))
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, got.Round)
}

func TestSessionRepository_LeaseHonoursContext(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	held, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	defer held.Release()

	// Reads are not blocked by the held lease.
	_, err = r.Get(s.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Lease(ctx, s.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionRepository_CommitAfterRemove(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	lease, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	defer lease.Release()

	r.Remove(s.ID)
	assert.ErrorIs(t, lease.Commit(lease.Session()), interview.ErrSessionNotFound)

	_, err = r.Lease(context.Background(), s.ID)
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

func TestSessionRepository_ReleasedLeaseCannotCommit(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	lease, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	lease.Release()
	lease.Release()

	assert.ErrorIs(t, lease.Commit(lease.Session()), ErrLeaseReleased)
}

func TestSessionRepository_Expiry(t *testing.T) {
	r := NewSessionRepository(30*time.Millisecond, 10*time.Millisecond)
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := r.Get(s.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := r.Create("alice", 3, interview.DifficultyEasy)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestSessionRepository_LeaseValid(t *testing.T) {
	r := newRepo()
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	lease, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	assert.NoError(t, lease.Valid())

	r.Remove(s.ID)
	assert.ErrorIs(t, lease.Valid(), interview.ErrSessionNotFound)

	lease.Release()
	assert.ErrorIs(t, lease.Valid(), ErrLeaseReleased)
}

func TestSessionRepository_LeaseRefreshesExpiry(t *testing.T) {
	r := NewSessionRepository(150*time.Millisecond, time.Hour)
	s, err := r.Create("alice", 3, interview.DifficultyEasy)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	lease, err := r.Lease(context.Background(), s.ID)
	require.NoError(t, err)
	defer lease.Release()

	// Past the original deadline, but the lease moved it.
	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, lease.Valid())
	_, err = r.Get(s.ID)
	assert.NoError(t, err)
}
