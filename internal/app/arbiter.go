package app

import (
	"context"
	"errors"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

// seedBuzzLocked rebuilds the hub's buzz state from persisted responses.
// Runs at most once per question, under the hub mutex; it keeps ranks
// gap-free even when a hub was reclaimed (all connections dropped) and
// rebuilt mid-question.
func (s *Service) seedBuzzLocked(ctx context.Context, hub *sessionHub, questionID string) error {
	if hub.seeded {
		return nil
	}
	responses, err := s.store.ListResponsesByQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	hub.buzzSeq = 0
	hub.buzzed = make(map[string]struct{}, len(responses))
	hub.holder = ""
	hub.answered = false
	for _, r := range responses {
		if r.BuzzRank == nil {
			continue
		}
		hub.buzzed[r.ParticipantID] = struct{}{}
		if *r.BuzzRank > hub.buzzSeq {
			hub.buzzSeq = *r.BuzzRank
		}
		if *r.BuzzRank == 1 {
			hub.holder = r.ParticipantID
			hub.answered = r.Answer != nil
		}
	}
	hub.seeded = true
	return nil
}

// AttemptBuzz serializes a buzz attempt for the session's current question.
// Rank assignment and response persistence happen atomically under the hub
// mutex, the single serialization point per session: two participants
// buzzing within microseconds still get distinct, gap-free ranks.
//
// Duplicate buzzes and buzzes outside an active question are Ignored, never
// errors. questionStartMS is the client-reported question start in unix ms;
// latency is clamped at zero so a late start signal cannot go negative.
func (s *Service) AttemptBuzz(ctx context.Context, c *Client, questionStartMS int64) (domain.Outcome, error) {
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

	participant, err := s.store.GetParticipant(ctx, c.participantID)
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return domain.Ignored, nil
	}
	if err != nil {
		return domain.Ignored, err
	}

	hub := s.registry.ensure(c.sessionID)
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if err := s.seedBuzzLocked(ctx, hub, question.ID); err != nil {
		return domain.Ignored, err
	}
	if _, already := hub.buzzed[c.participantID]; already {
		return domain.Ignored, nil
	}

	rank := hub.buzzSeq + 1
	var latency int64
	if questionStartMS > 0 {
		latency = s.now().UnixMilli() - questionStartMS
		if latency < 0 {
			latency = 0
		}
	}

	_, err = s.store.PutResponse(ctx, domain.Response{
		SessionID:     c.sessionID,
		QuestionID:    question.ID,
		ParticipantID: c.participantID,
		BuzzRank:      &rank,
		BuzzLatencyMS: &latency,
	})
	if err != nil {
		// Rank not consumed on persistence failure, so the sequence
		// stays gap-free.
		return domain.Ignored, err
	}

	hub.buzzSeq = rank
	hub.buzzed[c.participantID] = struct{}{}
	if rank == 1 {
		hub.holder = c.participantID
		hub.answered = false
	}

	hub.broadcastLocked(domain.Event{
		Type: domain.EventBuzzerPressed,
		Payload: domain.BuzzerPressed{
			Participant:   participant.Name,
			ParticipantID: c.participantID,
			BuzzRank:      rank,
			BuzzLatencyMS: latency,
		},
	})
	return domain.Accepted, nil
}

// CanAnswer reports whether the client currently holds the right to answer:
// rank 1 for the active question, answer not yet submitted.
func (s *Service) CanAnswer(ctx context.Context, c *Client) (bool, error) {
	if c == nil || c.participantID == "" {
		return false, nil
	}
	session, err := s.store.GetSession(ctx, c.sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	if session.Status != domain.StatusActive {
		return false, nil
	}
	question, ok, err := s.currentQuestion(ctx, session)
	if err != nil || !ok {
		return false, err
	}

	hub := s.registry.ensure(c.sessionID)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if err := s.seedBuzzLocked(ctx, hub, question.ID); err != nil {
		return false, err
	}
	return hub.holder == c.participantID && !hub.answered, nil
}
