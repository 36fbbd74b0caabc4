package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RecordStore keeps quiz records in Redis. Sessions, questions, and
// responses are JSON values; participants are hashes so score updates can
// use HINCRBY and stay atomic without a round trip.
//
// Key layout:
//
//	bb:session:{id}                      session JSON
//	bb:session:code:{CODE}               session ID
//	bb:session:{id}:questions            set of question IDs
//	bb:session:{id}:participants         set of participant IDs
//	bb:question:{id}                     question JSON
//	bb:question:{id}:responses           set of response IDs
//	bb:participant:{id}                  participant hash
//	bb:response:{id}                     response JSON
//	bb:response:{questionID}:{participantID}  response ID (uniqueness index)
type RecordStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRecordStore(client *redis.Client) *RecordStore {
	return &RecordStore{client: client, clock: time.Now}
}

func (s *RecordStore) CreateSession(ctx context.Context, session domain.QuizSession) (domain.QuizSession, error) {
	session.ID = uuid.NewString()
	session.CreatedAt = s.clock()
	if err := s.putSession(ctx, session); err != nil {
		return domain.QuizSession{}, err
	}
	if err := s.client.Set(ctx, "bb:session:code:"+session.Code, session.ID, 0).Err(); err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

func (s *RecordStore) putSession(ctx context.Context, session domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "bb:session:"+session.ID, data, 0).Err()
}

func (s *RecordStore) GetSession(ctx context.Context, id string) (domain.QuizSession, error) {
	data, err := s.client.Get(ctx, "bb:session:"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, err
	}
	var session domain.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

func (s *RecordStore) GetSessionByCode(ctx context.Context, code string) (domain.QuizSession, error) {
	id, err := s.client.Get(ctx, "bb:session:code:"+code).Result()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *RecordStore) SetSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	session.Status = status
	return s.putSession(ctx, session)
}

func (s *RecordStore) SetCurrentQuestion(ctx context.Context, id string, index int) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	session.CurrentQuestionIndex = index
	return s.putSession(ctx, session)
}

func (s *RecordStore) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	question.ID = uuid.NewString()
	data, err := json.Marshal(question)
	if err != nil {
		return domain.Question{}, err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, "bb:question:"+question.ID, data, 0)
	pipe.SAdd(ctx, "bb:session:"+question.SessionID+":questions", question.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *RecordStore) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	data, err := s.client.Get(ctx, "bb:question:"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	var question domain.Question
	if err := json.Unmarshal(data, &question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *RecordStore) ListQuestionsBySession(ctx context.Context, sessionID string) ([]domain.Question, error) {
	ids, err := s.client.SMembers(ctx, "bb:session:"+sessionID+":questions").Result()
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		question, err := s.GetQuestion(ctx, id)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func (s *RecordStore) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	participant.ID = uuid.NewString()
	participant.Score = 0
	participant.JoinedAt = s.clock()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, "bb:participant:"+participant.ID, map[string]any{
		"sessionId": participant.SessionID,
		"name":      participant.Name,
		"score":     0,
		"joinedAt":  participant.JoinedAt.UnixMilli(),
	})
	pipe.SAdd(ctx, "bb:session:"+participant.SessionID+":participants", participant.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

func (s *RecordStore) GetParticipant(ctx context.Context, id string) (domain.Participant, error) {
	fields, err := s.client.HGetAll(ctx, "bb:participant:"+id).Result()
	if err != nil {
		return domain.Participant{}, err
	}
	if len(fields) == 0 {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return participantFromHash(id, fields), nil
}

func participantFromHash(id string, fields map[string]string) domain.Participant {
	score, _ := strconv.Atoi(fields["score"])
	joinedMS, _ := strconv.ParseInt(fields["joinedAt"], 10, 64)
	return domain.Participant{
		ID:        id,
		SessionID: fields["sessionId"],
		Name:      fields["name"],
		Score:     score,
		JoinedAt:  time.UnixMilli(joinedMS),
	}
}

func (s *RecordStore) ListParticipantsBySession(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	ids, err := s.client.SMembers(ctx, "bb:session:"+sessionID+":participants").Result()
	if err != nil {
		return nil, err
	}
	participants := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		participant, err := s.GetParticipant(ctx, id)
		if errors.Is(err, domain.ErrParticipantNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Score != participants[j].Score {
			return participants[i].Score > participants[j].Score
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

func (s *RecordStore) AddScore(ctx context.Context, participantID string, delta int) (domain.Participant, error) {
	key := "bb:participant:" + participantID
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return domain.Participant{}, err
	}
	if exists == 0 {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err := s.client.HIncrBy(ctx, key, "score", int64(delta)).Err(); err != nil {
		return domain.Participant{}, err
	}
	return s.GetParticipant(ctx, participantID)
}

func (s *RecordStore) PutResponse(ctx context.Context, response domain.Response) (domain.Response, error) {
	indexKey := "bb:response:" + response.QuestionID + ":" + response.ParticipantID
	existingID, err := s.client.Get(ctx, indexKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		response.ID = uuid.NewString()
	case err != nil:
		return domain.Response{}, err
	default:
		response.ID = existingID
	}
	response.RespondedAt = s.clock()

	data, err := json.Marshal(response)
	if err != nil {
		return domain.Response{}, err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, "bb:response:"+response.ID, data, 0)
	pipe.Set(ctx, indexKey, response.ID, 0)
	pipe.SAdd(ctx, "bb:question:"+response.QuestionID+":responses", response.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

func (s *RecordStore) getResponse(ctx context.Context, id string) (domain.Response, error) {
	data, err := s.client.Get(ctx, "bb:response:"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, err
	}
	var response domain.Response
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

func (s *RecordStore) GetResponseForParticipant(ctx context.Context, questionID, participantID string) (domain.Response, error) {
	id, err := s.client.Get(ctx, "bb:response:"+questionID+":"+participantID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, err
	}
	return s.getResponse(ctx, id)
}

func (s *RecordStore) SetResponseAnswer(ctx context.Context, responseID, answer string, correct bool, points int) error {
	response, err := s.getResponse(ctx, responseID)
	if err != nil {
		return err
	}
	response.Answer = &answer
	response.Correct = &correct
	response.PointsAwarded = points
	response.RespondedAt = s.clock()

	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "bb:response:"+responseID, data, 0).Err()
}

func (s *RecordStore) ClearBuzzes(ctx context.Context, questionID string) error {
	ids, err := s.client.SMembers(ctx, "bb:question:"+questionID+":responses").Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		response, err := s.getResponse(ctx, id)
		if errors.Is(err, domain.ErrResponseNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		response.BuzzRank = nil
		response.BuzzLatencyMS = nil
		data, err := json.Marshal(response)
		if err != nil {
			return err
		}
		if err := s.client.Set(ctx, "bb:response:"+id, data, 0).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecordStore) ListResponsesByQuestion(ctx context.Context, questionID string) ([]domain.Response, error) {
	ids, err := s.client.SMembers(ctx, "bb:question:"+questionID+":responses").Result()
	if err != nil {
		return nil, err
	}
	responses := make([]domain.Response, 0, len(ids))
	for _, id := range ids {
		response, err := s.getResponse(ctx, id)
		if errors.Is(err, domain.ErrResponseNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	sort.Slice(responses, func(i, j int) bool { return rankOf(responses[i]) < rankOf(responses[j]) })
	return responses, nil
}

func rankOf(r domain.Response) int {
	if r.BuzzRank == nil {
		return int(^uint(0) >> 1)
	}
	return *r.BuzzRank
}
