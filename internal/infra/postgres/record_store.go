package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RecordStore persists quiz records in Postgres. The schema is owned by the
// migrations package and applied through the migrate CLI subcommand.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) CreateSession(ctx context.Context, session domain.QuizSession) (domain.QuizSession, error) {
	session.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_sessions (id, title, code, mode, timer_duration, total_questions, current_question_index, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		session.ID, session.Title, session.Code, session.Mode,
		session.TimerDuration, session.TotalQuestions, session.CurrentQuestionIndex, session.Status,
	).Scan(&session.CreatedAt)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

const sessionColumns = `id, title, code, mode, timer_duration, total_questions, current_question_index, status, created_at`

func (s *RecordStore) scanSession(row pgx.Row) (domain.QuizSession, error) {
	var session domain.QuizSession
	err := row.Scan(&session.ID, &session.Title, &session.Code, &session.Mode,
		&session.TimerDuration, &session.TotalQuestions, &session.CurrentQuestionIndex,
		&session.Status, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

func (s *RecordStore) GetSession(ctx context.Context, id string) (domain.QuizSession, error) {
	return s.scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE id=$1`, id))
}

func (s *RecordStore) GetSessionByCode(ctx context.Context, code string) (domain.QuizSession, error) {
	return s.scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE code=$1`, code))
}

func (s *RecordStore) SetSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quiz_sessions SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *RecordStore) SetCurrentQuestion(ctx context.Context, id string, index int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quiz_sessions SET current_question_index=$1 WHERE id=$2`, index, id)
	if err != nil {
		return fmt.Errorf("set current question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *RecordStore) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	question.ID = uuid.NewString()
	options, err := json.Marshal(question.Options)
	if err != nil {
		return domain.Question{}, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO questions (id, session_id, question_text, type, image_url, audio_url, options, correct_answer, "order")
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)`,
		question.ID, question.SessionID, question.Text, question.Kind,
		question.ImageURL, question.AudioURL, options, question.CorrectAnswer, question.Order)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

const questionColumns = `id, session_id, question_text, type, COALESCE(image_url, ''), COALESCE(audio_url, ''), options, correct_answer, "order"`

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		question domain.Question
		options  []byte
	)
	err := row.Scan(&question.ID, &question.SessionID, &question.Text, &question.Kind,
		&question.ImageURL, &question.AudioURL, &options, &question.CorrectAnswer, &question.Order)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(options, &question.Options); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *RecordStore) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return scanQuestion(s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id=$1`, id))
}

func (s *RecordStore) ListQuestionsBySession(ctx context.Context, sessionID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE session_id=$1 ORDER BY "order" ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *RecordStore) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	participant.ID = uuid.NewString()
	participant.Score = 0
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (id, session_id, name)
		VALUES ($1, $2, $3)
		RETURNING joined_at`,
		participant.ID, participant.SessionID, participant.Name,
	).Scan(&participant.JoinedAt)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func scanParticipant(row pgx.Row) (domain.Participant, error) {
	var participant domain.Participant
	err := row.Scan(&participant.ID, &participant.SessionID, &participant.Name,
		&participant.Score, &participant.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

func (s *RecordStore) GetParticipant(ctx context.Context, id string) (domain.Participant, error) {
	return scanParticipant(s.pool.QueryRow(ctx,
		`SELECT id, session_id, name, score, joined_at FROM participants WHERE id=$1`, id))
}

func (s *RecordStore) ListParticipantsBySession(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, name, score, joined_at
		FROM participants WHERE session_id=$1
		ORDER BY score DESC, joined_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]domain.Participant, 0)
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

func (s *RecordStore) AddScore(ctx context.Context, participantID string, delta int) (domain.Participant, error) {
	return scanParticipant(s.pool.QueryRow(ctx, `
		UPDATE participants SET score = score + $1 WHERE id=$2
		RETURNING id, session_id, name, score, joined_at`, delta, participantID))
}

func (s *RecordStore) PutResponse(ctx context.Context, response domain.Response) (domain.Response, error) {
	response.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO responses (id, session_id, question_id, participant_id, answer, buzzer_order, buzzer_time, is_correct, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (question_id, participant_id) DO UPDATE SET
			answer=EXCLUDED.answer,
			buzzer_order=EXCLUDED.buzzer_order,
			buzzer_time=EXCLUDED.buzzer_time,
			is_correct=EXCLUDED.is_correct,
			points_awarded=EXCLUDED.points_awarded,
			responded_at=now()
		RETURNING id, responded_at`,
		response.ID, response.SessionID, response.QuestionID, response.ParticipantID,
		response.Answer, response.BuzzRank, response.BuzzLatencyMS, response.Correct, response.PointsAwarded,
	).Scan(&response.ID, &response.RespondedAt)
	if err != nil {
		return domain.Response{}, fmt.Errorf("put response: %w", err)
	}
	return response, nil
}

func scanResponse(row pgx.Row) (domain.Response, error) {
	var (
		response domain.Response
		answer   sql.NullString
		rank     sql.NullInt32
		latency  sql.NullInt64
		correct  sql.NullBool
	)
	err := row.Scan(&response.ID, &response.SessionID, &response.QuestionID, &response.ParticipantID,
		&answer, &rank, &latency, &correct, &response.PointsAwarded, &response.RespondedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, err
	}
	if answer.Valid {
		response.Answer = &answer.String
	}
	if rank.Valid {
		r := int(rank.Int32)
		response.BuzzRank = &r
	}
	if latency.Valid {
		response.BuzzLatencyMS = &latency.Int64
	}
	if correct.Valid {
		response.Correct = &correct.Bool
	}
	return response, nil
}

const responseColumns = `id, session_id, question_id, participant_id, answer, buzzer_order, buzzer_time, is_correct, points_awarded, responded_at`

func (s *RecordStore) GetResponseForParticipant(ctx context.Context, questionID, participantID string) (domain.Response, error) {
	return scanResponse(s.pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE question_id=$1 AND participant_id=$2`,
		questionID, participantID))
}

func (s *RecordStore) SetResponseAnswer(ctx context.Context, responseID, answer string, correct bool, points int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE responses SET answer=$1, is_correct=$2, points_awarded=$3, responded_at=now()
		WHERE id=$4`, answer, correct, points, responseID)
	if err != nil {
		return fmt.Errorf("set response answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResponseNotFound
	}
	return nil
}

func (s *RecordStore) ClearBuzzes(ctx context.Context, questionID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE responses SET buzzer_order=NULL, buzzer_time=NULL WHERE question_id=$1`, questionID)
	if err != nil {
		return fmt.Errorf("clear buzzes: %w", err)
	}
	return nil
}

func (s *RecordStore) ListResponsesByQuestion(ctx context.Context, questionID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE question_id=$1 ORDER BY buzzer_order ASC NULLS LAST`,
		questionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]domain.Response, 0)
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}
