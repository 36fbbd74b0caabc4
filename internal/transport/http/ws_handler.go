package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/app"
	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades connections and maps the wire protocol onto the quiz
// use cases. Malformed frames are logged and dropped with the connection
// left open; Ignored/Rejected outcomes produce no reply at all, so
// unauthorized clients learn nothing about the protocol.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// inboundMessage is the flat client frame. Fields beyond Type are only
// meaningful for their corresponding message type.
type inboundMessage struct {
	Type              string `json:"type"`
	SessionID         string `json:"sessionId,omitempty"`
	ParticipantID     string `json:"participantId,omitempty"`
	IsAdmin           bool   `json:"isAdmin,omitempty"`
	QuestionStartTime int64  `json:"questionStartTime,omitempty"`
	Answer            string `json:"answer,omitempty"`
	Duration          int    `json:"duration,omitempty"`
}

// ServeWS runs one connection: a single writer goroutine drains the send
// channel, a forwarder per registration copies hub events into it, and the
// read loop dispatches client frames. Faults stay isolated to this
// connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan domain.Event, 16)
	writerDone := make(chan struct{})
	var forwarders sync.WaitGroup

	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var client *app.Client
	ctx := r.Context()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("ws dropping malformed frame: %v", err)
			continue
		}

		switch msg.Type {
		case "join_session":
			// Re-joining replaces the previous registration; the hub
			// reclaims it and its forwarder drains out.
			if client != nil {
				h.service.Unregister(client)
			}
			client, err = h.service.Register(ctx, msg.SessionID, msg.ParticipantID, msg.IsAdmin)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionNotFound) {
					log.Printf("ws join_session: %v", err)
				}
				continue
			}
			forwarders.Add(1)
			go func(events <-chan domain.Event) {
				defer forwarders.Done()
				for ev := range events {
					select {
					case send <- ev:
					case <-writerDone:
						return
					}
				}
			}(client.Events())

		case "buzzer_press":
			if _, err := h.service.AttemptBuzz(ctx, client, msg.QuestionStartTime); err != nil {
				log.Printf("ws buzzer_press: %v", err)
			}

		case "submit_answer":
			if _, err := h.service.SubmitAnswer(ctx, client, msg.Answer); err != nil {
				log.Printf("ws submit_answer: %v", err)
			}

		case "start_timer":
			if _, err := h.service.StartTimer(ctx, client, msg.Duration); err != nil {
				log.Printf("ws start_timer: %v", err)
			}

		case "pause_quiz":
			if _, err := h.service.PauseQuiz(ctx, client); err != nil {
				log.Printf("ws pause_quiz: %v", err)
			}

		case "resume_quiz":
			if _, err := h.service.ResumeQuiz(ctx, client); err != nil {
				log.Printf("ws resume_quiz: %v", err)
			}

		case "reset_buzzers":
			if _, err := h.service.ResetBuzzers(ctx, client); err != nil {
				log.Printf("ws reset_buzzers: %v", err)
			}

		case "next_question":
			if _, err := h.service.AdvanceQuestion(ctx, client); err != nil {
				log.Printf("ws next_question: %v", err)
			}

		case "quiz_ended":
			if _, err := h.service.EndQuiz(ctx, client); err != nil {
				log.Printf("ws quiz_ended: %v", err)
			}

		default:
			log.Printf("ws dropping unknown message type %q", msg.Type)
		}
	}

	if client != nil {
		h.service.Unregister(client)
	}
	forwarders.Wait()
	close(send)
	<-writerDone
}
