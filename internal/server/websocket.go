package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"arena/internal/game"
	"arena/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

type statePayload struct {
	View *session.View `json:"view"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.manager.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	room := s.manager.Room(id)
	p := room.Connect(playerID)
	defer room.Disconnect(p)
	s.log.Debug("player connected", zap.String("game_id", id), zap.String("player_id", playerID))

	// Writer goroutine: send messages from the channel to the websocket. The
	// channel is closed when a newer connection replaces this one, which also
	// ends the reader.
	go func() {
		defer cancel()
		for msg := range p.Send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	s.sendState(ctx, room, id, playerID)

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil || ctx.Err() != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(room, playerID, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(ctx, room, id, playerID, msg)
	}

	s.log.Debug("player disconnected", zap.String("game_id", id), zap.String("player_id", playerID))
}

func (s *Server) handleMessage(ctx context.Context, room *session.Session, id, playerID string, msg WSMessage) {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			sendWSMsg(room, playerID, "error", errorPayload{Message: "invalid action payload"})
			return
		}
		if _, err := s.manager.Submit(ctx, id, playerID, ap.Action); err != nil {
			sendWSMsg(room, playerID, "error", errorPayload{Message: err.Error()})
			return
		}
		s.broadcastState(ctx, id)

	case "start":
		g, err := s.manager.Get(ctx, id)
		if err != nil {
			sendWSMsg(room, playerID, "error", errorPayload{Message: err.Error()})
			return
		}
		if _, ok := g.SeatOf(playerID); !ok {
			sendWSMsg(room, playerID, "error", errorPayload{Message: "only players can start"})
			return
		}
		if _, err := s.manager.Start(ctx, id); err != nil {
			sendWSMsg(room, playerID, "error", errorPayload{Message: err.Error()})
			return
		}
		s.broadcastState(ctx, id)

	case "state":
		s.sendState(ctx, room, id, playerID)

	default:
		sendWSMsg(room, playerID, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

// broadcastState sends every connected player their own view of the game.
func (s *Server) broadcastState(ctx context.Context, id string) {
	room, ok := s.manager.ActiveRoom(id)
	if !ok {
		return
	}
	for _, pid := range room.PlayerIDs() {
		s.sendState(ctx, room, id, pid)
	}
}

func (s *Server) sendState(ctx context.Context, room *session.Session, id, playerID string) {
	v, err := s.manager.View(ctx, id, playerID)
	if err != nil {
		s.log.Warn("build view", zap.String("game_id", id), zap.String("player_id", playerID), zap.Error(err))
		sendWSMsg(room, playerID, "error", errorPayload{Message: err.Error()})
		return
	}
	sendWSMsg(room, playerID, "state", statePayload{View: v})
}

func sendWSMsg(room *session.Session, playerID, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	room.Send(playerID, msg)
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
