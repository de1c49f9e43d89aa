package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"arena/internal/ai"
	"arena/internal/engine"
	"arena/internal/game"
	"arena/internal/game/chess"
	"arena/internal/game/poker"
	"arena/internal/session"
	"arena/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts  *httptest.Server
	mgr *session.Manager
}

func setupTestEnv(t *testing.T, suggester ai.Suggester) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pk, err := poker.New(poker.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(game.NewRegistry(chess.Rules{}, pk))
	// Websocket handlers can outlive the test, so they must not log through t.
	logger := zap.NewNop()
	mgr, err := session.NewManager(eng, store, session.Options{Suggester: suggester, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(New(mgr, logger))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

// do sends a JSON request and decodes the response into out when out is not nil.
func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s (%d): %v", method, url, resp.StatusCode, err)
		}
	}
	return resp.StatusCode
}

func createGameViaAPI(t *testing.T, ts *httptest.Server, req createGameRequest) session.Game {
	t.Helper()
	var g session.Game
	if code := do(t, http.MethodPost, ts.URL+"/api/games", req, &g); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	return g
}

func createChess(t *testing.T, ts *httptest.Server) session.Game {
	t.Helper()
	return createGameViaAPI(t, ts, createGameRequest{Variant: "chess", Players: []string{"alice", "bob"}})
}

func postMove(t *testing.T, ts *httptest.Server, id, player, uci string) int {
	t.Helper()
	return do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/actions", actionRequest{PlayerID: player, Move: uci}, nil)
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, id string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/games/" + id + "/ws"
}

// wsConnect dials a WebSocket, sends a join message and consumes the initial
// state, so the player is registered in the room once it returns.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, id, playerID string) (*websocket.Conn, statePayload) {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, id), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	wsSend(ctx, t, conn, joinMsg(playerID))
	return conn, readState(t, ctx, conn)
}

// sendWS marshals and sends a typed WebSocket message.
func sendWS(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	wsSend(ctx, t, conn, WSMessage{Type: msgType, Payload: p})
}

// wsSend marshals and writes a pre-built WSMessage, calling t.Fatal on error.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and unmarshals a WebSocket message, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// joinMsg builds a WSMessage for a join request.
func joinMsg(playerID string) WSMessage {
	payload, _ := json.Marshal(joinPayload{PlayerID: playerID})
	return WSMessage{Type: "join", Payload: payload}
}

func chessAction(t *testing.T, uci string) actionPayload {
	t.Helper()
	m, err := game.ParseUCI(uci)
	if err != nil {
		t.Fatal(err)
	}
	return actionPayload{Action: game.Action{Chess: &m}}
}

// readState reads a WebSocket message and expects it to be a "state" message.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) statePayload {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var sp statePayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	if sp.View == nil {
		t.Fatal("state without view")
	}
	return sp
}

// readError reads a WebSocket message and expects it to be an "error" message.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}
