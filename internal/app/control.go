package app

import (
	"context"
	"errors"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

// Moderator session control. Every operation here is Rejected unless the
// issuing connection is flagged as the moderator, and no transition is
// permitted out of the ended state.

// StartTimer activates a waiting session (or re-arms the timer on an active
// one) and broadcasts an absolute server start timestamp, so clients with
// skewed clocks still agree on the remaining time.
func (s *Service) StartTimer(ctx context.Context, c *Client, durationSec int) (domain.Outcome, error) {
	if c == nil || !c.moderator {
		return domain.Rejected, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}

	switch session.Status {
	case domain.StatusWaiting:
		if err := s.store.SetSessionStatus(ctx, session.ID, domain.StatusActive); err != nil {
			return domain.Ignored, err
		}
	case domain.StatusActive:
		// Timer re-arm for the current question. Buzz state is left
		// untouched; reset_buzzers is the explicit clear.
	default:
		return domain.Rejected, nil
	}

	if durationSec <= 0 {
		durationSec = session.TimerDuration
	}
	s.registry.Broadcast(c.sessionID, domain.Event{
		Type: domain.EventTimerStarted,
		Payload: domain.TimerStarted{
			Duration:    durationSec,
			StartTimeMS: s.now().UnixMilli(),
		},
	})
	return domain.Accepted, nil
}

// PauseQuiz suspends an active session; buzzes and answers are rejected
// while paused.
func (s *Service) PauseQuiz(ctx context.Context, c *Client) (domain.Outcome, error) {
	return s.setStatus(ctx, c, domain.StatusActive, domain.StatusPaused, domain.EventQuizPaused)
}

// ResumeQuiz returns a paused session to active.
func (s *Service) ResumeQuiz(ctx context.Context, c *Client) (domain.Outcome, error) {
	return s.setStatus(ctx, c, domain.StatusPaused, domain.StatusActive, domain.EventQuizResumed)
}

func (s *Service) setStatus(ctx context.Context, c *Client, from, to domain.SessionStatus, eventType string) (domain.Outcome, error) {
	if c == nil || !c.moderator {
		return domain.Rejected, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}
	if session.Status != from {
		return domain.Rejected, nil
	}
	if err := s.store.SetSessionStatus(ctx, session.ID, to); err != nil {
		return domain.Ignored, err
	}
	s.registry.Broadcast(c.sessionID, domain.Event{Type: eventType})
	return domain.Accepted, nil
}

// ResetBuzzers restarts arbitration for the current question without
// touching the question index. The persisted ranks are cleared along with
// the hub state, so a hub rebuilt after every connection drops cannot
// re-seed pre-reset arbitration from old rows. Answers and points already
// recorded stay as history.
func (s *Service) ResetBuzzers(ctx context.Context, c *Client) (domain.Outcome, error) {
	if c == nil || !c.moderator {
		return domain.Rejected, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}

	hub := s.registry.ensure(c.sessionID)
	hub.mu.Lock()
	defer hub.mu.Unlock()

	question, ok, err := s.currentQuestion(ctx, session)
	if err != nil {
		return domain.Ignored, err
	}
	if ok {
		if err := s.store.ClearBuzzes(ctx, question.ID); err != nil {
			return domain.Ignored, err
		}
	}
	hub.clearBuzzLocked(true)
	hub.broadcastLocked(domain.Event{Type: domain.EventBuzzersReset})
	return domain.Accepted, nil
}

// AdvanceQuestion moves to the next question, clearing buzz state, or ends
// the quiz when the last question is exhausted.
func (s *Service) AdvanceQuestion(ctx context.Context, c *Client) (domain.Outcome, error) {
	if c == nil || !c.moderator {
		return domain.Rejected, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}
	if session.Status != domain.StatusActive && session.Status != domain.StatusPaused {
		return domain.Rejected, nil
	}

	questions, err := s.questions.List(ctx, session.ID)
	if err != nil {
		return domain.Ignored, err
	}
	next := session.CurrentQuestionIndex + 1

	hub := s.registry.ensure(c.sessionID)
	if next < len(questions) {
		if err := s.store.SetCurrentQuestion(ctx, session.ID, next); err != nil {
			return domain.Ignored, err
		}
		hub.mu.Lock()
		hub.clearBuzzLocked(false)
		hub.broadcastLocked(domain.Event{
			Type: domain.EventQuestionChanged,
			Payload: domain.QuestionChanged{
				QuestionIndex: next,
				Question:      questions[next].View(),
			},
		})
		hub.mu.Unlock()
		return domain.Accepted, nil
	}

	if err := s.store.SetSessionStatus(ctx, session.ID, domain.StatusEnded); err != nil {
		return domain.Ignored, err
	}
	hub.mu.Lock()
	hub.clearBuzzLocked(true)
	hub.broadcastLocked(domain.Event{Type: domain.EventQuizEnded})
	hub.mu.Unlock()
	return domain.Accepted, nil
}

// EndQuiz force-transitions any non-terminal session to ended.
func (s *Service) EndQuiz(ctx context.Context, c *Client) (domain.Outcome, error) {
	if c == nil || !c.moderator {
		return domain.Rejected, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}
	if session.Status == domain.StatusEnded {
		return domain.Ignored, nil
	}
	if err := s.store.SetSessionStatus(ctx, session.ID, domain.StatusEnded); err != nil {
		return domain.Ignored, err
	}
	s.registry.Broadcast(c.sessionID, domain.Event{Type: domain.EventQuizEnded})
	return domain.Accepted, nil
}
