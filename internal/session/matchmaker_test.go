package session

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type matchRecorder struct {
	mu       sync.Mutex
	pairs    [][2]*PlayerSession
	promoted []*PlayerSession
}

func (r *matchRecorder) pair(newcomer, waiting *PlayerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, [2]*PlayerSession{newcomer, waiting})
}

func (r *matchRecorder) promote(p *PlayerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promoted = append(r.promoted, p)
}

func (r *matchRecorder) promotedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.promoted)
}

func newTestMatchmaker(t *testing.T) (*Matchmaker, *clock.Mock, *matchRecorder) {
	mock := clock.NewMock()
	rec := &matchRecorder{}
	m := NewMatchmaker(mock, testPromotionDelay, rec.pair, rec.promote, zaptest.NewLogger(t).Sugar())
	return m, mock, rec
}

func TestMatchmakerPairsNewcomerWithOldestWaiting(t *testing.T) {
	m, mock, rec := newTestMatchmaker(t)
	alice, bob, carol := testPlayer("alice"), testPlayer("bob"), testPlayer("carol")

	require.NoError(t, m.Enqueue(alice))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Enqueue(bob))
	assert.Equal(t, 0, m.Len())
	require.Len(t, rec.pairs, 1)
	assert.Same(t, bob, rec.pairs[0][0], "newcomer takes the first slot")
	assert.Same(t, alice, rec.pairs[0][1])

	require.NoError(t, m.Enqueue(carol))
	assert.Equal(t, 1, m.Len())

	// O timer de alice foi parado no pareamento; só carol é promovida.
	mock.Add(testPromotionDelay)
	require.Eventually(t, func() bool { return rec.promotedCount() == 1 }, waitFor, tick)
	assert.Same(t, carol, rec.promoted[0])
	assert.Equal(t, 0, m.Len())
}

func TestMatchmakerRejectsDuplicates(t *testing.T) {
	m, _, _ := newTestMatchmaker(t)
	alice := testPlayer("alice")
	require.NoError(t, m.Enqueue(alice))

	assert.ErrorIs(t, m.Enqueue(alice), ErrAlreadyQueued)
	assert.ErrorIs(t, m.Enqueue(testPlayer("alice")), ErrAlreadyQueued)
	assert.Equal(t, 1, m.Len())
}

func TestMatchmakerPromotion(t *testing.T) {
	t.Run("promotes after the delay", func(t *testing.T) {
		m, mock, rec := newTestMatchmaker(t)
		alice := testPlayer("alice")
		require.NoError(t, m.Enqueue(alice))

		mock.Add(testPromotionDelay - time.Second)
		assert.Equal(t, 0, rec.promotedCount())

		mock.Add(time.Second)
		require.Eventually(t, func() bool { return rec.promotedCount() == 1 }, waitFor, tick)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("removed player is never promoted", func(t *testing.T) {
		m, mock, rec := newTestMatchmaker(t)
		alice := testPlayer("alice")
		require.NoError(t, m.Enqueue(alice))

		assert.True(t, m.RemoveIfPresent(alice))
		assert.False(t, m.RemoveIfPresent(alice))

		mock.Add(testPromotionDelay)
		assert.Never(t, func() bool { return rec.promotedCount() > 0 }, 50*time.Millisecond, tick)
	})

	t.Run("stale timer does nothing after removal", func(t *testing.T) {
		m, _, rec := newTestMatchmaker(t)
		alice := testPlayer("alice")
		require.NoError(t, m.Enqueue(alice))

		m.mu.Lock()
		entry := m.queue[0]
		m.mu.Unlock()

		m.RemoveIfPresent(alice)
		m.promote(entry)
		assert.Equal(t, 0, rec.promotedCount())
	})

	t.Run("old timer does not promote a player who queued again", func(t *testing.T) {
		m, _, rec := newTestMatchmaker(t)
		alice := testPlayer("alice")
		require.NoError(t, m.Enqueue(alice))

		m.mu.Lock()
		old := m.queue[0]
		m.mu.Unlock()

		m.RemoveIfPresent(alice)
		require.NoError(t, m.Enqueue(alice))

		m.promote(old)
		assert.Equal(t, 0, rec.promotedCount())
		assert.Equal(t, 1, m.Len())
	})
}

func TestMatchmakerBlocksNameWhilePromoting(t *testing.T) {
	mock := clock.NewMock()
	entered := make(chan struct{})
	release := make(chan struct{})
	m := NewMatchmaker(mock, testPromotionDelay,
		func(newcomer, waiting *PlayerSession) {},
		func(p *PlayerSession) {
			close(entered)
			<-release
		},
		zaptest.NewLogger(t).Sugar())

	require.NoError(t, m.Enqueue(testPlayer("alice")))
	mock.Add(testPromotionDelay)

	select {
	case <-entered:
	case <-time.After(waitFor):
		t.Fatal("promotion callback never ran")
	}
	assert.Equal(t, 0, m.Len())

	// Outra conexão com o mesmo nome não entra na fila enquanto a sala do bot não existe.
	assert.ErrorIs(t, m.Enqueue(testPlayer("alice")), ErrAlreadyQueued)
	require.NoError(t, m.Enqueue(testPlayer("bob")))

	close(release)
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.promoting) == 0
	}, waitFor, tick)
}

func TestMatchmakerStop(t *testing.T) {
	m, mock, rec := newTestMatchmaker(t)
	require.NoError(t, m.Enqueue(testPlayer("alice")))

	m.Stop()
	assert.Equal(t, 0, m.Len())
	assert.ErrorIs(t, m.Enqueue(testPlayer("bob")), ErrShuttingDown)

	mock.Add(testPromotionDelay)
	assert.Never(t, func() bool { return rec.promotedCount() > 0 }, 50*time.Millisecond, tick)
}
