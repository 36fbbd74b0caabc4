package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

func newTestStore(t *testing.T) (*RecordStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRecordStore(client), mr
}

func TestRecordStoreSessionKeys(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, domain.QuizSession{
		Title:  "Friday Trivia",
		Code:   "ABC234",
		Status: domain.StatusWaiting,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !mr.Exists("bb:session:" + session.ID) {
		t.Fatal("session JSON key not written")
	}
	if !mr.Exists("bb:session:code:ABC234") {
		t.Fatal("code index key not written")
	}

	byCode, err := store.GetSessionByCode(ctx, "ABC234")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode.ID != session.ID {
		t.Fatalf("code lookup returned %q, want %q", byCode.ID, session.ID)
	}

	if err := store.SetSessionStatus(ctx, session.ID, domain.StatusActive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := store.SetCurrentQuestion(ctx, session.ID, 1); err != nil {
		t.Fatalf("set current question: %v", err)
	}
	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != domain.StatusActive || got.CurrentQuestionIndex != 1 {
		t.Fatalf("session after updates = %+v", got)
	}

	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("missing session error = %v", err)
	}
}

func TestRecordStoreQuestionsKeepOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session, _ := store.CreateSession(ctx, domain.QuizSession{Code: "QQQ222"})
	for _, order := range []int{1, 0} {
		if _, err := store.CreateQuestion(ctx, domain.Question{
			SessionID:     session.ID,
			Text:          "q",
			Options:       domain.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectAnswer: "A",
			Order:         order,
		}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	questions, err := store.ListQuestionsBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 || questions[0].Order != 0 || questions[1].Order != 1 {
		t.Fatalf("questions out of order: %+v", questions)
	}
	if questions[0].CorrectAnswer != "A" {
		t.Fatal("correct answer lost in round trip")
	}
}

func TestRecordStoreScoresUseHashIncrement(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session, _ := store.CreateSession(ctx, domain.QuizSession{Code: "SSS444"})
	participant, err := store.CreateParticipant(ctx, domain.Participant{
		SessionID: session.ID,
		Name:      "alice",
	})
	if err != nil {
		t.Fatalf("create participant: %v", err)
	}

	if _, err := store.AddScore(ctx, participant.ID, 10); err != nil {
		t.Fatalf("add score: %v", err)
	}
	updated, err := store.AddScore(ctx, participant.ID, -5)
	if err != nil {
		t.Fatalf("add score: %v", err)
	}
	if updated.Score != 5 {
		t.Fatalf("score = %d, want 5", updated.Score)
	}
	if got := mr.HGet("bb:participant:"+participant.ID, "score"); got != "5" {
		t.Fatalf("stored score field = %q, want 5", got)
	}

	if _, err := store.AddScore(ctx, "missing", 10); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("missing participant error = %v", err)
	}
}

func TestRecordStoreResponseUpsertIndex(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	rank := 1
	first, err := store.PutResponse(ctx, domain.Response{
		QuestionID:    "q1",
		ParticipantID: "p1",
		BuzzRank:      &rank,
	})
	if err != nil {
		t.Fatalf("put response: %v", err)
	}
	again, err := store.PutResponse(ctx, domain.Response{
		QuestionID:    "q1",
		ParticipantID: "p1",
		BuzzRank:      &rank,
	})
	if err != nil {
		t.Fatalf("put response again: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("upsert created a new row: %q vs %q", again.ID, first.ID)
	}
	if !mr.Exists("bb:response:q1:p1") {
		t.Fatal("uniqueness index key not written")
	}

	if err := store.SetResponseAnswer(ctx, first.ID, "C", false, -5); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	got, err := store.GetResponseForParticipant(ctx, "q1", "p1")
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if got.Answer == nil || *got.Answer != "C" || got.PointsAwarded != -5 {
		t.Fatalf("response after answer = %+v", got)
	}
}

func TestRecordStoreClearBuzzesUnranks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rank := 1
	buzzed, err := store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p1", BuzzRank: &rank})
	if err != nil {
		t.Fatalf("put response: %v", err)
	}
	if err := store.SetResponseAnswer(ctx, buzzed.ID, "A", true, 10); err != nil {
		t.Fatalf("set answer: %v", err)
	}

	if err := store.ClearBuzzes(ctx, "q1"); err != nil {
		t.Fatalf("clear buzzes: %v", err)
	}
	got, err := store.GetResponseForParticipant(ctx, "q1", "p1")
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if got.BuzzRank != nil || got.BuzzLatencyMS != nil {
		t.Fatalf("response still ranked after clear: %+v", got)
	}
	if got.Answer == nil || *got.Answer != "A" || got.PointsAwarded != 10 {
		t.Fatalf("answer lost by clear: %+v", got)
	}
}

func TestRecordStoreResponsesSortByRank(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	second := 2
	if _, err := store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p2", BuzzRank: &second}); err != nil {
		t.Fatalf("put response: %v", err)
	}
	first := 1
	if _, err := store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p1", BuzzRank: &first}); err != nil {
		t.Fatalf("put response: %v", err)
	}

	responses, err := store.ListResponsesByQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 2 || responses[0].ParticipantID != "p1" || responses[1].ParticipantID != "p2" {
		t.Fatalf("responses out of rank order: %+v", responses)
	}
}
