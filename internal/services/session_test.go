package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTracker_Touch(t *testing.T) {
	tracker := NewSessionTracker()
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	first := tracker.Touch("a", "casual")
	assert.Equal(t, 1, first.MessageCount)
	assert.Equal(t, base, first.CreatedAt)

	tracker.now = func() time.Time { return base.Add(time.Minute) }
	second := tracker.Touch("a", "technical")
	assert.Equal(t, 2, second.MessageCount)
	assert.Equal(t, base, second.CreatedAt)
	assert.Equal(t, base.Add(time.Minute), second.LastActivity)
	assert.Equal(t, "technical", second.Personality)

	tracker.now = func() time.Time { return base.Add(2 * time.Minute) }
	tracker.Touch("b", "casual")

	sessions := tracker.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].SessionID)
	assert.Equal(t, "a", sessions[1].SessionID)

	tracker.Forget("a")
	assert.Equal(t, 1, tracker.Count())
}

func TestSessionLocks_Disabled(t *testing.T) {
	locks := newSessionLocks(false)
	unlockA := locks.Lock("s")
	unlockB := locks.Lock("s") // would deadlock if enabled
	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}

func TestSessionLocks_IndependentSessions(t *testing.T) {
	locks := newSessionLocks(true)
	unlockA := locks.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another session blocked")
	}
	unlockA()
	assert.Equal(t, 0, locks.size())
}

func TestSessionLocks_MutualExclusion(t *testing.T) {
	locks := newSessionLocks(true)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("shared")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}
