package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/qmin9339-glitch/choseong/internal/app"
	"github.com/qmin9339-glitch/choseong/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and drives one player's game loop: state
// snapshots (including the per-second countdown), finished-session results,
// and live leaderboard rankings all flow out over the socket, while start,
// answer, and leaderboard commands flow in.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	userID, err := h.service.ResolveIdentity(r.URL.Query().Get("userId"))
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	results := make(chan domain.SessionResult, 4)
	session, profile, err := h.service.StartSession(r.Context(), userID, r.URL.Query().Get("name"), func(result domain.SessionResult) {
		select {
		case results <- result:
		default:
		}
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()

	snapshots, cancelSnapshots := session.Subscribe()
	defer cancelSnapshots()

	rankings, cancelRankings, err := h.service.SubscribeLeaderboard(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancelRankings()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	pumpsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(pumpsDone)
		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case ranking, ok := <-rankings:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: ranking}:
				case <-closeSignals:
					return
				}
			case result := <-results:
				select {
				case send <- outboundMessage[any]{Type: "finished", Payload: result}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// The writer goroutine exits on the first failed write; sends from the
	// read loop must not block on a channel nobody drains anymore.
	trySend := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	trySend(outboundMessage[any]{Type: "profile", Payload: profile})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if err := session.Start(); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if strings.TrimSpace(payload.Text) == "" {
				// Blank input is not an answer attempt; the question stands.
				continue
			}
			session.Submit(payload.Text)
		case "leaderboard":
			session.EnterLeaderboard()
		case "back":
			session.LeaveLeaderboard()
		default:
			trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-pumpsDone
	close(send)
	<-writerDone
}
