package domain

// Event is the envelope fanned out to every connection in a session.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Server-to-client event types.
const (
	EventSessionState    = "session_state"
	EventBuzzerPressed   = "buzzer_pressed"
	EventAnswerSubmitted = "answer_submitted"
	EventTimerStarted    = "timer_started"
	EventBuzzersReset    = "reset_buzzers"
	EventQuestionChanged = "question_changed"
	EventQuizPaused      = "quiz_paused"
	EventQuizResumed     = "quiz_resumed"
	EventQuizEnded       = "quiz_ended"
)

// SessionState is sent to a connection right after it registers, so
// reconnecting clients catch up before the first live update.
type SessionState struct {
	Session      QuizSession   `json:"session"`
	Participants []Participant `json:"participants"`
}

// BuzzerPressed announces an accepted buzz with its arrival rank.
type BuzzerPressed struct {
	Participant   string `json:"participant"`
	ParticipantID string `json:"participantId"`
	BuzzRank      int    `json:"buzzerOrder"`
	BuzzLatencyMS int64  `json:"buzzerTime"`
}

// AnswerSubmitted announces a scored answer.
type AnswerSubmitted struct {
	ParticipantID string `json:"participantId"`
	Answer        string `json:"answer"`
	Correct       bool   `json:"isCorrect"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// TimerStarted carries an absolute server start time so clients with skewed
// clocks still render a consistent countdown.
type TimerStarted struct {
	Duration    int   `json:"duration"`  // seconds
	StartTimeMS int64 `json:"startTime"` // unix ms, server clock
}

// QuestionChanged announces progression to a new question.
type QuestionChanged struct {
	QuestionIndex int          `json:"questionIndex"`
	Question      QuestionView `json:"question"`
}
