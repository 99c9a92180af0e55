package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
)

// WSHandler exposes a quiz session over a websocket. The browser supplies
// (quizId, studentId) on connect and drives the session with verbs; the
// server pushes state snapshots, countdown ticks, and the final summary.
type WSHandler struct {
	service      *app.QuizService
	upgrader     websocket.Upgrader
	tickInterval time.Duration
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickInterval: app.TickInterval,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type gotoPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type finishedPayload struct {
	Summary app.Summary `json:"summary"`
	Warning string      `json:"warning,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type ineligiblePayload struct {
	Message     string         `json:"message"`
	PriorResult *domain.Result `json:"priorResult,omitempty"`
}

// ServeWS upgrades the request and wires the connection into a quiz session.
// The session lives exactly as long as the connection: disconnecting
// abandons it without persisting partial progress.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	studentID := r.URL.Query().Get("studentId")
	if quizID == "" || studentID == "" {
		http.Error(w, "missing quizId or studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.OpenSession(ctx, quizID, studentID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var countdown sync.WaitGroup
	countdownStarted := false
	defer func() {
		// stop the countdown before closing the writer channel it sends on
		cancel()
		countdown.Wait()
		close(send)
		<-writerDone
	}()

	send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}
	if prior, ok := session.PriorResult(); ok {
		send <- outboundMessage[any]{Type: "ineligible", Payload: ineligiblePayload{
			Message:     "You have already completed this quiz. You can only take each quiz once.",
			PriorResult: &prior,
		}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			if err := session.Start(); err != nil {
				h.sendError(send, err)
				continue
			}
			if !countdownStarted {
				countdownStarted = true
				countdown.Add(1)
				go func() {
					defer countdown.Done()
					h.runCountdown(ctx, session, send)
				}()
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(send, errors.New("invalid select payload"))
				continue
			}
			if err := session.SelectOption(payload.QuestionIndex, payload.OptionIndex); err != nil {
				h.sendError(send, err)
				continue
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "skip":
			if err := session.Skip(); err != nil {
				h.sendError(send, err)
				continue
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(send, errors.New("invalid goto payload"))
				continue
			}
			if err := session.GoTo(payload.QuestionIndex); err != nil {
				h.sendError(send, err)
				continue
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "next":
			if err := session.Next(); err != nil {
				h.sendError(send, err)
				continue
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "previous":
			if err := session.Previous(); err != nil {
				h.sendError(send, err)
				continue
			}
			send <- outboundMessage[any]{Type: "session", Payload: session.Snapshot()}

		case "submit":
			summary, err := session.Finish(ctx, app.FinishManual)
			if err != nil && !errors.Is(err, domain.ErrResultNotRecorded) {
				h.sendError(send, err)
				continue
			}
			h.sendFinished(send, summary, err)

		default:
			h.sendError(send, errors.New("unsupported message type"))
		}
	}
}

// runCountdown ticks the session once per interval and pushes the remaining
// time. When the countdown expires it reports the summary produced by the
// session's own timeout path.
func (h *WSHandler) runCountdown(ctx context.Context, session *app.Session, send chan<- outboundMessage[any]) {
	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done := session.Tick(ctx)
			if !done {
				h.trySend(ctx, send, outboundMessage[any]{Type: "tick", Payload: tickPayload{
					RemainingSeconds: session.RemainingSeconds(),
				}})
				continue
			}
			// Finish is idempotent: this either reports the expiry summary
			// or the one a racing manual submit already produced.
			summary, err := session.Finish(ctx, app.FinishTimeout)
			if err == nil || errors.Is(err, domain.ErrResultNotRecorded) {
				h.trySendFinished(ctx, send, summary, err)
			}
			return
		}
	}
}

func (h *WSHandler) sendError(send chan<- outboundMessage[any], err error) {
	send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

func (h *WSHandler) sendFinished(send chan<- outboundMessage[any], summary app.Summary, err error) {
	payload := finishedPayload{Summary: summary}
	if err != nil {
		payload.Warning = "Your score is shown below, but saving the result failed. It may not appear in your history."
	}
	send <- outboundMessage[any]{Type: "finished", Payload: payload}
}

func (h *WSHandler) trySend(ctx context.Context, send chan<- outboundMessage[any], msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-ctx.Done():
	}
}

func (h *WSHandler) trySendFinished(ctx context.Context, send chan<- outboundMessage[any], summary app.Summary, err error) {
	payload := finishedPayload{Summary: summary}
	if err != nil {
		payload.Warning = "Your score is shown below, but saving the result failed. It may not appear in your history."
	}
	h.trySend(ctx, send, outboundMessage[any]{Type: "finished", Payload: payload})
}
