package app

import (
	"context"
	"sync"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches a session's ordered question list with a TTL.
// Questions are immutable once a quiz has started, so the hot path (every
// buzz and answer resolves the current question) can skip the store.
// Adding a question invalidates the session's entry.
type QuestionCache struct {
	store RecordStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(store RecordStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]cachedQuestions),
	}
}

func (c *QuestionCache) List(ctx context.Context, sessionID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(sessionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.store.ListQuestionsBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[sessionID] = cachedQuestions{questions: questions, expiresAt: now.Add(c.ttl)}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) Invalidate(sessionID string) {
	c.mu.Lock()
	delete(c.cache, sessionID)
	c.mu.Unlock()
}
