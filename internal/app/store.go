package app

import (
	"context"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

// RecordStore abstracts persistence for sessions, questions, participants,
// and responses (in-memory, Redis, Postgres). The realtime core treats it as
// the single source of truth for scores and response history.
type RecordStore interface {
	CreateSession(ctx context.Context, session domain.QuizSession) (domain.QuizSession, error)
	GetSession(ctx context.Context, id string) (domain.QuizSession, error)
	GetSessionByCode(ctx context.Context, code string) (domain.QuizSession, error)
	SetSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error
	SetCurrentQuestion(ctx context.Context, id string, index int) error

	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	// ListQuestionsBySession returns questions ordered by their order index.
	ListQuestionsBySession(ctx context.Context, sessionID string) ([]domain.Question, error)

	CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	GetParticipant(ctx context.Context, id string) (domain.Participant, error)
	// ListParticipantsBySession returns participants ordered by score descending.
	ListParticipantsBySession(ctx context.Context, sessionID string) ([]domain.Participant, error)
	// AddScore increments a participant's score by delta and returns the
	// updated record. Increments, never overwrites, so concurrent scoring of
	// different questions cannot lose updates.
	AddScore(ctx context.Context, participantID string, delta int) (domain.Participant, error)

	// PutResponse inserts a response, or replaces the existing one for the
	// same (question, participant) pair. The composite uniqueness invariant
	// is enforced here, not by callers.
	PutResponse(ctx context.Context, response domain.Response) (domain.Response, error)
	GetResponseForParticipant(ctx context.Context, questionID, participantID string) (domain.Response, error)
	SetResponseAnswer(ctx context.Context, responseID, answer string, correct bool, points int) error
	// ClearBuzzes removes the buzz rank and latency from every response of
	// the question, keeping answers and points. Makes a buzzer reset
	// durable: a hub rebuilt from these rows starts with empty arbitration.
	ClearBuzzes(ctx context.Context, questionID string) error
	// ListResponsesByQuestion returns responses ordered by buzz rank ascending.
	ListResponsesByQuestion(ctx context.Context, questionID string) ([]domain.Response, error)
}
