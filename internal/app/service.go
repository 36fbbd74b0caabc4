package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

const defaultTimerDuration = 30 // seconds

// Service contains the realtime quiz use cases: connection registration,
// buzz arbitration, scoring, and moderator session control.
type Service struct {
	store     RecordStore
	questions *QuestionCache
	registry  *Registry
	now       func() time.Time
}

func NewService(store RecordStore, questionTTL time.Duration) *Service {
	return &Service{
		store:     store,
		questions: NewQuestionCache(store, questionTTL),
		registry:  NewRegistry(),
		now:       time.Now,
	}
}

// Register adds a connection to a session's hub. The returned client's first
// event is a session_state snapshot (session record plus participant list),
// closing the gap between connect and first live update for reconnecting
// clients. participantID is empty for moderator and display connections.
func (s *Service) Register(ctx context.Context, sessionID, participantID string, moderator bool) (*Client, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipantsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := domain.Event{
		Type: domain.EventSessionState,
		Payload: domain.SessionState{
			Session:      session,
			Participants: participants,
		},
	}
	return s.registry.register(sessionID, participantID, moderator, snapshot), nil
}

// Unregister removes a connection. Persisted history (buzz ranks, scores)
// stays valid after disconnect.
func (s *Service) Unregister(c *Client) {
	s.registry.Unregister(c)
}

// Connections reports live connection count for a session.
func (s *Service) Connections(sessionID string) int {
	return s.registry.Connections(sessionID)
}

// CreateSession creates a waiting session with a fresh unique join code.
func (s *Service) CreateSession(ctx context.Context, title string, mode domain.SessionMode, timerDuration, totalQuestions int) (domain.QuizSession, error) {
	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if mode == "" {
		mode = domain.ModeIndividual
	}
	if timerDuration <= 0 {
		timerDuration = defaultTimerDuration
	}
	return s.store.CreateSession(ctx, domain.QuizSession{
		Title:          title,
		Code:           code,
		Mode:           mode,
		TimerDuration:  timerDuration,
		TotalQuestions: totalQuestions,
		Status:         domain.StatusWaiting,
	})
}

// LookupSession resolves a session by ID, falling back to join code.
func (s *Service) LookupSession(ctx context.Context, idOrCode string) (domain.QuizSession, error) {
	session, err := s.store.GetSession(ctx, idOrCode)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return s.store.GetSessionByCode(ctx, strings.ToUpper(idOrCode))
	}
	return session, err
}

// AddQuestion appends a question to a session that has not started yet.
func (s *Service) AddQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	session, err := s.store.GetSession(ctx, question.SessionID)
	if err != nil {
		return domain.Question{}, err
	}
	if session.Status != domain.StatusWaiting {
		return domain.Question{}, domain.ErrSessionStarted
	}
	created, err := s.store.CreateQuestion(ctx, question)
	if err != nil {
		return domain.Question{}, err
	}
	s.questions.Invalidate(question.SessionID)
	return created, nil
}

// Questions lists a session's questions in order, bypassing the cache so
// moderators editing a waiting session always see fresh content.
func (s *Service) Questions(ctx context.Context, sessionID string) ([]domain.Question, error) {
	return s.store.ListQuestionsBySession(ctx, sessionID)
}

func (s *Service) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

// JoinParticipant creates a participant in a non-ended session and pushes a
// refreshed session_state to everyone already connected, so rosters update
// live.
func (s *Service) JoinParticipant(ctx context.Context, sessionID, name string) (domain.Participant, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Participant{}, err
	}
	if session.Status == domain.StatusEnded {
		return domain.Participant{}, domain.ErrSessionStarted
	}
	participant, err := s.store.CreateParticipant(ctx, domain.Participant{
		SessionID: sessionID,
		Name:      name,
	})
	if err != nil {
		return domain.Participant{}, err
	}
	s.broadcastSessionState(ctx, sessionID)
	return participant, nil
}

func (s *Service) GetParticipant(ctx context.Context, id string) (domain.Participant, error) {
	return s.store.GetParticipant(ctx, id)
}

// Leaderboard returns a session's participants ordered by score descending.
func (s *Service) Leaderboard(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	return s.store.ListParticipantsBySession(ctx, sessionID)
}

// QuestionResults aggregates per-option answer counts for one question.
func (s *Service) QuestionResults(ctx context.Context, questionID string) (domain.Question, []domain.Response, map[string]int, error) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, nil, nil, err
	}
	responses, err := s.store.ListResponsesByQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, nil, nil, err
	}
	counts := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0}
	for _, r := range responses {
		if r.Answer != nil {
			counts[*r.Answer]++
		}
	}
	return question, responses, counts, nil
}

func (s *Service) broadcastSessionState(ctx context.Context, sessionID string) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return
	}
	participants, err := s.store.ListParticipantsBySession(ctx, sessionID)
	if err != nil {
		return
	}
	s.registry.Broadcast(sessionID, domain.Event{
		Type: domain.EventSessionState,
		Payload: domain.SessionState{
			Session:      session,
			Participants: participants,
		},
	})
}

// currentQuestion resolves the session's active question through the cache.
// ok is false when the index points past the question list.
func (s *Service) currentQuestion(ctx context.Context, session domain.QuizSession) (domain.Question, bool, error) {
	questions, err := s.questions.List(ctx, session.ID)
	if err != nil {
		return domain.Question{}, false, err
	}
	idx := session.CurrentQuestionIndex
	if idx < 0 || idx >= len(questions) {
		return domain.Question{}, false, nil
	}
	return questions[idx], true, nil
}
