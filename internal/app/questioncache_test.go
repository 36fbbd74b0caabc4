package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/infra/memory"
)

type countingStore struct {
	RecordStore
	lists atomic.Int64
}

func (s *countingStore) ListQuestionsBySession(ctx context.Context, sessionID string) ([]domain.Question, error) {
	s.lists.Add(1)
	return s.RecordStore.ListQuestionsBySession(ctx, sessionID)
}

func TestQuestionCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{RecordStore: memory.NewRecordStore()}

	session, err := store.CreateSession(ctx, domain.QuizSession{Code: "CCC555"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := store.CreateQuestion(ctx, domain.Question{SessionID: session.ID, Text: "q", Order: 0}); err != nil {
		t.Fatalf("create question: %v", err)
	}

	cache := NewQuestionCache(store, time.Minute)
	for i := 0; i < 3; i++ {
		questions, err := cache.List(ctx, session.ID)
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if len(questions) != 1 {
			t.Fatalf("len(questions) = %d, want 1", len(questions))
		}
	}
	if got := store.lists.Load(); got != 1 {
		t.Fatalf("store hit %d times, want 1", got)
	}
}

func TestQuestionCacheInvalidateForcesReload(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{RecordStore: memory.NewRecordStore()}

	session, err := store.CreateSession(ctx, domain.QuizSession{Code: "DDD666"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	cache := NewQuestionCache(store, time.Minute)
	if _, err := cache.List(ctx, session.ID); err != nil {
		t.Fatalf("list: %v", err)
	}

	if _, err := store.CreateQuestion(ctx, domain.Question{SessionID: session.ID, Text: "late", Order: 0}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	cache.Invalidate(session.ID)

	questions, err := cache.List(ctx, session.ID)
	if err != nil {
		t.Fatalf("list after invalidate: %v", err)
	}
	if len(questions) != 1 || questions[0].Text != "late" {
		t.Fatalf("questions = %+v", questions)
	}
	if got := store.lists.Load(); got != 2 {
		t.Fatalf("store hit %d times, want 2", got)
	}
}

func TestQuestionCacheExpiresByTTL(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{RecordStore: memory.NewRecordStore()}
	session, err := store.CreateSession(ctx, domain.QuizSession{Code: "EEE777"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	cache := NewQuestionCache(store, time.Minute)
	current := time.Now()
	cache.clock = func() time.Time { return current }

	if _, err := cache.List(ctx, session.ID); err != nil {
		t.Fatalf("list: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := cache.List(ctx, session.ID); err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	if got := store.lists.Load(); got != 2 {
		t.Fatalf("store hit %d times, want 2", got)
	}
}
