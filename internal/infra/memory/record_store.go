package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/google/uuid"
)

// RecordStore is an in-memory implementation of app.RecordStore, the
// default backend when neither Redis nor Postgres is configured.
type RecordStore struct {
	mu           sync.RWMutex
	sessions     map[string]domain.QuizSession
	questions    map[string]domain.Question
	participants map[string]domain.Participant
	responses    map[string]domain.Response
	clock        func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		sessions:     make(map[string]domain.QuizSession),
		questions:    make(map[string]domain.Question),
		participants: make(map[string]domain.Participant),
		responses:    make(map[string]domain.Response),
		clock:        time.Now,
	}
}

// NewRecordStoreWithClock is test-only for deterministic timestamps.
func NewRecordStoreWithClock(now func() time.Time) *RecordStore {
	store := NewRecordStore()
	store.clock = now
	return store
}

func (s *RecordStore) CreateSession(_ context.Context, session domain.QuizSession) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = uuid.NewString()
	session.CreatedAt = s.clock()
	s.sessions[session.ID] = session
	return session, nil
}

func (s *RecordStore) GetSession(_ context.Context, id string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *RecordStore) GetSessionByCode(_ context.Context, code string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.Code == code {
			return session, nil
		}
	}
	return domain.QuizSession{}, domain.ErrSessionNotFound
}

func (s *RecordStore) SetSessionStatus(_ context.Context, id string, status domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = status
	s.sessions[id] = session
	return nil
}

func (s *RecordStore) SetCurrentQuestion(_ context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.CurrentQuestionIndex = index
	s.sessions[id] = session
	return nil
}

func (s *RecordStore) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question.ID = uuid.NewString()
	s.questions[question.ID] = question
	return question, nil
}

func (s *RecordStore) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *RecordStore) ListQuestionsBySession(_ context.Context, sessionID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func (s *RecordStore) CreateParticipant(_ context.Context, participant domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant.ID = uuid.NewString()
	participant.Score = 0
	participant.JoinedAt = s.clock()
	s.participants[participant.ID] = participant
	return participant, nil
}

func (s *RecordStore) GetParticipant(_ context.Context, id string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *RecordStore) ListParticipantsBySession(_ context.Context, sessionID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participants := make([]domain.Participant, 0)
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			participants = append(participants, p)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Score != participants[j].Score {
			return participants[i].Score > participants[j].Score
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

func (s *RecordStore) AddScore(_ context.Context, participantID string, delta int) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	participant.Score += delta
	s.participants[participantID] = participant
	return participant, nil
}

func (s *RecordStore) PutResponse(_ context.Context, response domain.Response) (domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.responses {
		if existing.QuestionID == response.QuestionID && existing.ParticipantID == response.ParticipantID {
			response.ID = id
			response.RespondedAt = s.clock()
			s.responses[id] = response
			return response, nil
		}
	}
	response.ID = uuid.NewString()
	response.RespondedAt = s.clock()
	s.responses[response.ID] = response
	return response, nil
}

func (s *RecordStore) GetResponseForParticipant(_ context.Context, questionID, participantID string) (domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.QuestionID == questionID && r.ParticipantID == participantID {
			return r, nil
		}
	}
	return domain.Response{}, domain.ErrResponseNotFound
}

func (s *RecordStore) SetResponseAnswer(_ context.Context, responseID, answer string, correct bool, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	response, ok := s.responses[responseID]
	if !ok {
		return domain.ErrResponseNotFound
	}
	response.Answer = &answer
	response.Correct = &correct
	response.PointsAwarded = points
	response.RespondedAt = s.clock()
	s.responses[responseID] = response
	return nil
}

func (s *RecordStore) ClearBuzzes(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.responses {
		if r.QuestionID == questionID {
			r.BuzzRank = nil
			r.BuzzLatencyMS = nil
			s.responses[id] = r
		}
	}
	return nil
}

func (s *RecordStore) ListResponsesByQuestion(_ context.Context, questionID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	responses := make([]domain.Response, 0)
	for _, r := range s.responses {
		if r.QuestionID == questionID {
			responses = append(responses, r)
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		return rankOf(responses[i]) < rankOf(responses[j])
	})
	return responses, nil
}

func rankOf(r domain.Response) int {
	if r.BuzzRank == nil {
		return int(^uint(0) >> 1) // unranked responses sort last
	}
	return *r.BuzzRank
}
