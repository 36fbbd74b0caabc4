package domain

import "time"

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusPaused  SessionStatus = "paused"
	StatusEnded   SessionStatus = "ended"
)

// SessionMode distinguishes individual play from team play.
type SessionMode string

const (
	ModeIndividual SessionMode = "individual"
	ModeTeam       SessionMode = "team"
)

// QuestionKind describes how a question is presented.
type QuestionKind string

const (
	KindText  QuestionKind = "text"
	KindImage QuestionKind = "image"
	KindAudio QuestionKind = "audio"
)

// QuizSession is one live quiz, joinable by its short code.
type QuizSession struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	Code                 string        `json:"code"`
	Mode                 SessionMode   `json:"mode"`
	TimerDuration        int           `json:"timerDuration"` // seconds per question
	TotalQuestions       int           `json:"totalQuestions"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	Status               SessionStatus `json:"status"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// Options holds the four labeled choices for a question.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Question is immutable once its session has started.
type Question struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"sessionId"`
	Text          string       `json:"questionText"`
	Kind          QuestionKind `json:"type"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	AudioURL      string       `json:"audioUrl,omitempty"`
	Options       Options      `json:"options"`
	CorrectAnswer string       `json:"correctAnswer"` // "A".."D"
	Order         int          `json:"order"`
}

// View returns the question without its correct answer, safe to broadcast
// while the question is still open.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:        q.ID,
		SessionID: q.SessionID,
		Text:      q.Text,
		Kind:      q.Kind,
		ImageURL:  q.ImageURL,
		AudioURL:  q.AudioURL,
		Options:   q.Options,
		Order:     q.Order,
	}
}

// QuestionView is the client-facing shape of an open question.
type QuestionView struct {
	ID        string       `json:"id"`
	SessionID string       `json:"sessionId"`
	Text      string       `json:"questionText"`
	Kind      QuestionKind `json:"type"`
	ImageURL  string       `json:"imageUrl,omitempty"`
	AudioURL  string       `json:"audioUrl,omitempty"`
	Options   Options      `json:"options"`
	Order     int          `json:"order"`
}

// Participant joins a session via code; score is mutated only by the
// scoring engine and may go negative.
type Participant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Response records one participant's interaction with one question.
// At most one Response exists per (question, participant); it is created
// on first buzz and updated in place on answer submission.
type Response struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	QuestionID    string    `json:"questionId"`
	ParticipantID string    `json:"participantId"`
	Answer        *string   `json:"answer"`        // nil until answered
	BuzzRank      *int      `json:"buzzerOrder"`   // 1-based arrival order
	BuzzLatencyMS *int64    `json:"buzzerTime"`    // ms from question start
	Correct       *bool     `json:"isCorrect"`     // nil until answered
	PointsAwarded int       `json:"pointsAwarded"` // 0 until answered
	RespondedAt   time.Time `json:"respondedAt"`
}
