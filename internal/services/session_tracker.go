package services

import (
	"sort"
	"sync"
	"time"

	"assistantpro-backend/internal/models"

	"github.com/patrickmn/go-cache"
)

const (
	sessionIdleExpiry    = 1 * time.Hour
	sessionCleanupPeriod = 10 * time.Minute
)

// SessionTracker keeps in-memory activity metadata for recently used sessions.
// Entries expire after an hour without activity and are lost on restart.
type SessionTracker struct {
	mu    sync.Mutex // serialises read-modify-write of a single entry
	cache *cache.Cache
	now   func() time.Time
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		cache: cache.New(sessionIdleExpiry, sessionCleanupPeriod),
		now:   time.Now,
	}
}

// Touch records one completed message for the session.
func (t *SessionTracker) Touch(sessionID, personality string) models.SessionInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	info := models.SessionInfo{SessionID: sessionID, CreatedAt: now}
	if existing, found := t.cache.Get(sessionID); found {
		info = existing.(models.SessionInfo)
	}
	info.Personality = personality
	info.MessageCount++
	info.LastActivity = now

	t.cache.Set(sessionID, info, cache.DefaultExpiration)
	return info
}

// Forget drops a session, used when its transcript is cleared.
func (t *SessionTracker) Forget(sessionID string) {
	t.cache.Delete(sessionID)
}

// Count returns the number of tracked sessions, possibly including expired
// entries not yet swept.
func (t *SessionTracker) Count() int {
	return t.cache.ItemCount()
}

// Sessions returns live sessions, most recently active first.
func (t *SessionTracker) Sessions() []models.SessionInfo {
	items := t.cache.Items()
	sessions := make([]models.SessionInfo, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(models.SessionInfo))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions
}
