package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	created, err := store.CreateSession(ctx, domain.QuizSession{
		Title:  "Friday Trivia",
		Code:   "ABC234",
		Status: domain.StatusWaiting,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateSession did not assign an ID")
	}

	byID, err := store.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	byCode, err := store.GetSessionByCode(ctx, "ABC234")
	if err != nil {
		t.Fatalf("GetSessionByCode: %v", err)
	}
	if byID.ID != byCode.ID {
		t.Fatalf("code lookup returned %q, want %q", byCode.ID, byID.ID)
	}

	if err := store.SetSessionStatus(ctx, created.ID, domain.StatusActive); err != nil {
		t.Fatalf("SetSessionStatus: %v", err)
	}
	if err := store.SetCurrentQuestion(ctx, created.ID, 2); err != nil {
		t.Fatalf("SetCurrentQuestion: %v", err)
	}
	got, _ := store.GetSession(ctx, created.ID)
	if got.Status != domain.StatusActive || got.CurrentQuestionIndex != 2 {
		t.Fatalf("session after updates = %+v", got)
	}

	if _, err := store.GetSession(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("missing session error = %v", err)
	}
}

func TestQuestionsSortByOrder(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	session, _ := store.CreateSession(ctx, domain.QuizSession{Code: "QQQ222"})
	for _, order := range []int{2, 0, 1} {
		if _, err := store.CreateQuestion(ctx, domain.Question{
			SessionID: session.ID,
			Text:      "q",
			Order:     order,
		}); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
	}

	questions, err := store.ListQuestionsBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListQuestionsBySession: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("len(questions) = %d, want 3", len(questions))
	}
	for i, q := range questions {
		if q.Order != i {
			t.Fatalf("questions[%d].Order = %d", i, q.Order)
		}
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tick := 0
	store := NewRecordStoreWithClock(func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	})
	ctx := context.Background()

	session, _ := store.CreateSession(ctx, domain.QuizSession{Code: "LLL333"})
	alice, _ := store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Name: "alice"})
	bob, _ := store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Name: "bob"})
	carol, _ := store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Name: "carol"})

	if _, err := store.AddScore(ctx, bob.ID, 10); err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if _, err := store.AddScore(ctx, carol.ID, 10); err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	updated, err := store.AddScore(ctx, alice.ID, -5)
	if err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if updated.Score != -5 {
		t.Fatalf("alice score = %d, want -5", updated.Score)
	}

	participants, err := store.ListParticipantsBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListParticipantsBySession: %v", err)
	}
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	// Score descending, earlier joiner first on ties.
	want := []string{"bob", "carol", "alice"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("leaderboard = %v, want %v", names, want)
		}
	}
}

func TestPutResponseUpserts(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	rank := 1
	first, err := store.PutResponse(ctx, domain.Response{
		QuestionID:    "q1",
		ParticipantID: "p1",
		BuzzRank:      &rank,
	})
	if err != nil {
		t.Fatalf("PutResponse: %v", err)
	}

	again, err := store.PutResponse(ctx, domain.Response{
		QuestionID:    "q1",
		ParticipantID: "p1",
		BuzzRank:      &rank,
	})
	if err != nil {
		t.Fatalf("PutResponse upsert: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("upsert created a new row: %q vs %q", again.ID, first.ID)
	}

	other, _ := store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p2"})
	if other.ID == first.ID {
		t.Fatal("distinct participant reused the same response row")
	}
}

func TestResponsesSortByBuzzRank(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	second, third := 2, 3
	store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p3", BuzzRank: &third})
	store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p4"}) // unranked
	first := 1
	store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p1", BuzzRank: &first})
	store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p2", BuzzRank: &second})

	responses, err := store.ListResponsesByQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("ListResponsesByQuestion: %v", err)
	}
	want := []string{"p1", "p2", "p3", "p4"}
	for i, r := range responses {
		if r.ParticipantID != want[i] {
			t.Fatalf("responses[%d] = %s, want %s", i, r.ParticipantID, want[i])
		}
	}
}

func TestClearBuzzesUnranksResponses(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	first, second := 1, 2
	answered, _ := store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p1", BuzzRank: &first})
	store.PutResponse(ctx, domain.Response{QuestionID: "q1", ParticipantID: "p2", BuzzRank: &second})
	other, _ := store.PutResponse(ctx, domain.Response{QuestionID: "q2", ParticipantID: "p1", BuzzRank: &first})
	if err := store.SetResponseAnswer(ctx, answered.ID, "A", true, 10); err != nil {
		t.Fatalf("SetResponseAnswer: %v", err)
	}

	if err := store.ClearBuzzes(ctx, "q1"); err != nil {
		t.Fatalf("ClearBuzzes: %v", err)
	}

	responses, _ := store.ListResponsesByQuestion(ctx, "q1")
	for _, r := range responses {
		if r.BuzzRank != nil || r.BuzzLatencyMS != nil {
			t.Fatalf("response %s still ranked after clear: %+v", r.ID, r)
		}
	}
	// Answer history survives the clear.
	got, _ := store.GetResponseForParticipant(ctx, "q1", "p1")
	if got.Answer == nil || *got.Answer != "A" || got.PointsAwarded != 10 {
		t.Fatalf("answer lost by clear: %+v", got)
	}
	// Other questions are untouched.
	untouched, _ := store.GetResponseForParticipant(ctx, "q2", "p1")
	if untouched.ID != other.ID || untouched.BuzzRank == nil || *untouched.BuzzRank != 1 {
		t.Fatalf("clear leaked into another question: %+v", untouched)
	}
}

func TestSetResponseAnswer(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	rank := 1
	response, _ := store.PutResponse(ctx, domain.Response{
		QuestionID:    "q1",
		ParticipantID: "p1",
		BuzzRank:      &rank,
	})

	if err := store.SetResponseAnswer(ctx, response.ID, "B", true, 10); err != nil {
		t.Fatalf("SetResponseAnswer: %v", err)
	}
	got, err := store.GetResponseForParticipant(ctx, "q1", "p1")
	if err != nil {
		t.Fatalf("GetResponseForParticipant: %v", err)
	}
	if got.Answer == nil || *got.Answer != "B" {
		t.Fatalf("answer = %v", got.Answer)
	}
	if got.Correct == nil || !*got.Correct || got.PointsAwarded != 10 {
		t.Fatalf("correct/points = %v/%d", got.Correct, got.PointsAwarded)
	}

	if err := store.SetResponseAnswer(ctx, "missing", "A", false, 0); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("missing response error = %v", err)
	}
}
