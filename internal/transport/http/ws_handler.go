package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type openedPayload struct {
	SessionID  string                `json:"sessionId"`
	Definition domain.QuizDefinition `json:"definition"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into one quiz runtime. The optional
// sessionId query parameter resumes a session; quizId picks the stored quiz a new session starts from.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	quizID := r.URL.Query().Get("quizId")

	o, err := h.service.Acquire(r.Context(), sessionID, quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer h.service.Release(context.Background(), o.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	log := h.log.With(zap.String("session", o.ID()))

	states, cancelStates := o.Session().Subscribe()
	defer cancelStates()
	navigation, cancelNavigation := o.Subscribe()
	defer cancelNavigation()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for states != nil || navigation != nil {
			var msg outboundMessage[any]
			select {
			case state, ok := <-states:
				if !ok {
					states = nil
					continue
				}
				msg = outboundMessage[any]{Type: "state", Payload: state}
			case nav, ok := <-navigation:
				if !ok {
					navigation = nil
					continue
				}
				msg = outboundMessage[any]{Type: "navigation", Payload: nav}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "opened", Payload: openedPayload{SessionID: o.ID(), Definition: o.Definition()}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := h.dispatch(r.Context(), o, inbound)
		if err != nil {
			log.Debug("ws message rejected", zap.String("type", inbound.Type), zap.Error(err))
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			continue
		}
		if reply.Type != "" {
			send <- reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

var errBadMessage = errors.New("invalid message")
