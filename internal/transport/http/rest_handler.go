package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/app"
	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

// RESTHandler exposes session, question, and participant CRUD plus result
// views. The realtime core never depends on it; it is the moderator's setup
// surface.
type RESTHandler struct {
	service *app.Service
}

func NewRESTHandler(service *app.Service) *RESTHandler {
	return &RESTHandler{service: service}
}

// NewRouter wires the full HTTP surface: REST routes, the websocket
// endpoint, and the health check.
func NewRouter(service *app.Service) *httprouter.Router {
	rest := NewRESTHandler(service)
	ws := NewWSHandler(service)

	router := httprouter.New()
	router.POST("/api/sessions", rest.CreateSession)
	router.GET("/api/sessions/:sessionId", rest.GetSession)
	router.GET("/api/sessions/:sessionId/qr", rest.SessionQR)
	router.POST("/api/sessions/:sessionId/questions", rest.CreateQuestion)
	router.GET("/api/sessions/:sessionId/questions", rest.ListQuestions)
	router.POST("/api/sessions/:sessionId/participants", rest.CreateParticipant)
	router.GET("/api/sessions/:sessionId/participants", rest.ListParticipants)
	router.GET("/api/sessions/:sessionId/leaderboard", rest.ListParticipants)
	router.GET("/api/questions/:questionId/results", rest.QuestionResults)
	router.GET("/api/participants/:participantId", rest.GetParticipant)

	router.HandlerFunc(http.MethodGet, "/ws", ws.ServeWS)
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return router
}

type createSessionRequest struct {
	Title          string             `json:"title"`
	Mode           domain.SessionMode `json:"mode"`
	TimerDuration  int                `json:"timerDuration"`
	TotalQuestions int                `json:"totalQuestions"`
}

func (h *RESTHandler) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid session data")
		return
	}
	session, err := h.service.CreateSession(r.Context(), req.Title, req.Mode, req.TimerDuration, req.TotalQuestions)
	if err != nil {
		log.Printf("create session: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *RESTHandler) GetSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	session, err := h.service.LookupSession(r.Context(), p.ByName("sessionId"))
	if err != nil {
		respondLookupError(w, err, "session not found", "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SessionQR renders a join QR code pointing at the session's join URL,
// respecting TLS and X-Forwarded-Proto behind a reverse proxy.
func (h *RESTHandler) SessionQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	session, err := h.service.LookupSession(r.Context(), p.ByName("sessionId"))
	if err != nil {
		respondLookupError(w, err, "session not found", "failed to get session")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	joinURL := scheme + "://" + r.Host + "/join/" + session.Code

	const qrSize = 320
	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("session qr: %v", err)
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

type createQuestionRequest struct {
	Text          string              `json:"questionText"`
	Kind          domain.QuestionKind `json:"type"`
	ImageURL      string              `json:"imageUrl"`
	AudioURL      string              `json:"audioUrl"`
	Options       domain.Options      `json:"options"`
	CorrectAnswer string              `json:"correctAnswer"`
	Order         int                 `json:"order"`
}

func (h *RESTHandler) CreateQuestion(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" || !validLabel(req.CorrectAnswer) {
		writeError(w, http.StatusBadRequest, "invalid question data")
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.KindText
	}
	question, err := h.service.AddQuestion(r.Context(), domain.Question{
		SessionID:     p.ByName("sessionId"),
		Text:          req.Text,
		Kind:          kind,
		ImageURL:      req.ImageURL,
		AudioURL:      req.AudioURL,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Order:         req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, domain.ErrSessionStarted):
			writeError(w, http.StatusConflict, "session already started")
		default:
			log.Printf("create question: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create question")
		}
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func validLabel(label string) bool {
	switch label {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

func (h *RESTHandler) ListQuestions(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	questions, err := h.service.Questions(r.Context(), p.ByName("sessionId"))
	if err != nil {
		log.Printf("list questions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type createParticipantRequest struct {
	Name string `json:"name"`
}

func (h *RESTHandler) CreateParticipant(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var req createParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid participant data")
		return
	}
	// Accept a join code here too, since participants join by code.
	session, err := h.service.LookupSession(r.Context(), p.ByName("sessionId"))
	if err != nil {
		respondLookupError(w, err, "session not found", "failed to get session")
		return
	}
	participant, err := h.service.JoinParticipant(r.Context(), session.ID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrSessionStarted) {
			writeError(w, http.StatusConflict, "session has ended")
			return
		}
		log.Printf("create participant: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create participant")
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

func (h *RESTHandler) ListParticipants(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	participants, err := h.service.Leaderboard(r.Context(), p.ByName("sessionId"))
	if err != nil {
		log.Printf("list participants: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get participants")
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

func (h *RESTHandler) GetParticipant(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	participant, err := h.service.GetParticipant(r.Context(), p.ByName("participantId"))
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		log.Printf("get participant: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get participant")
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

type questionResultsResponse struct {
	Question       domain.Question   `json:"question"`
	Responses      []domain.Response `json:"responses"`
	PollResults    map[string]int    `json:"pollResults"`
	TotalResponses int               `json:"totalResponses"`
}

func (h *RESTHandler) QuestionResults(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	question, responses, counts, err := h.service.QuestionResults(r.Context(), p.ByName("questionId"))
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		log.Printf("question results: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get question results")
		return
	}
	answered := 0
	for _, resp := range responses {
		if resp.Answer != nil {
			answered++
		}
	}
	writeJSON(w, http.StatusOK, questionResultsResponse{
		Question:       question,
		Responses:      responses,
		PollResults:    counts,
		TotalResponses: answered,
	})
}

func respondLookupError(w http.ResponseWriter, err error, notFound, internal string) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	log.Printf("%s: %v", internal, err)
	writeError(w, http.StatusInternalServerError, internal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
