package app

import (
	"context"
	"errors"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

const (
	pointsCorrect   = 10
	pointsIncorrect = -5
)

// answerPoints applies the scoring policy. Image questions carry no penalty
// for a wrong answer.
func answerPoints(kind domain.QuestionKind, correct bool) int {
	if correct {
		return pointsCorrect
	}
	if kind == domain.KindImage {
		return 0
	}
	return pointsIncorrect
}

// SubmitAnswer validates and records an answer from the participant holding
// buzz rank 1. The Response row is updated in place and the participant's
// score incremented by the delta, exactly once per question. Late, duplicate,
// and non-holder submissions are Ignored.
func (s *Service) SubmitAnswer(ctx context.Context, c *Client, answer string) (domain.Outcome, error) {
	if c == nil || c.participantID == "" {
		return domain.Rejected, nil
	}

	session, err := s.store.GetSession(ctx, c.sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}
	if session.Status != domain.StatusActive {
		return domain.Ignored, nil
	}

	question, ok, err := s.currentQuestion(ctx, session)
	if err != nil {
		return domain.Ignored, err
	}
	if !ok {
		return domain.Ignored, nil
	}

	hub := s.registry.ensure(c.sessionID)
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if err := s.seedBuzzLocked(ctx, hub, question.ID); err != nil {
		return domain.Ignored, err
	}
	if hub.holder != c.participantID || hub.answered {
		return domain.Ignored, nil
	}

	response, err := s.store.GetResponseForParticipant(ctx, question.ID, c.participantID)
	if errors.Is(err, domain.ErrResponseNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}
	if response.Answer != nil {
		hub.answered = true
		return domain.Ignored, nil
	}

	correct := answer == question.CorrectAnswer
	points := answerPoints(question.Kind, correct)

	if err := s.store.SetResponseAnswer(ctx, response.ID, answer, correct, points); err != nil {
		return domain.Ignored, err
	}
	if _, err := s.store.AddScore(ctx, c.participantID, points); err != nil {
		return domain.Ignored, err
	}
	hub.answered = true

	hub.broadcastLocked(domain.Event{
		Type: domain.EventAnswerSubmitted,
		Payload: domain.AnswerSubmitted{
			ParticipantID: c.participantID,
			Answer:        answer,
			Correct:       correct,
			PointsAwarded: points,
		},
	})
	return domain.Accepted, nil
}
