package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"nhooyr.io/websocket"

	"arena/internal/game"
)

func TestWSJoinReceivesState(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)

	conn, sp := wsConnect(t, env.ts, g.ID, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")

	if sp.View.Seat != "white" || sp.View.ToMove != "alice" {
		t.Fatalf("unexpected view: seat %q to move %q", sp.View.Seat, sp.View.ToMove)
	}
	if len(sp.View.LegalActions) != 20 {
		t.Fatalf("expected 20 legal actions, got %d", len(sp.View.LegalActions))
	}
	if sp.View.State.Chess == nil || sp.View.State.Chess.FEN == "" {
		t.Fatal("expected chess state in view")
	}
}

func TestWSSpectatorJoin(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)

	conn, sp := wsConnect(t, env.ts, g.ID, "eve")
	defer conn.Close(websocket.StatusNormalClosure, "")

	if sp.View.Seat != "" || len(sp.View.LegalActions) != 0 {
		t.Fatalf("spectator should have no seat or actions: %q %d", sp.View.Seat, len(sp.View.LegalActions))
	}
}

func TestWSGameNotFound(t *testing.T) {
	env := setupTestEnv(t, nil)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(env.ts, "missing"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %v", resp)
	}
}

func TestWSFirstMessageNotJoin(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(env.ts, g.ID), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendWS(ctx, t, conn, "action", chessAction(t, "e2e4"))
	if msg := readError(t, ctx, conn); msg != "first message must be a join" {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestWSJoinInvalidPayload(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(env.ts, g.ID), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	wsSend(ctx, t, conn, WSMessage{Type: "join", Payload: json.RawMessage(`{"playerId":""}`)})
	if msg := readError(t, ctx, conn); msg != "invalid join payload" {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestWSActionBroadcastsViews(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	alice, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")
	bob, _ := wsConnect(t, env.ts, g.ID, "bob")
	defer bob.Close(websocket.StatusNormalClosure, "")

	sendWS(ctx, t, alice, "action", chessAction(t, "e2e4"))

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		sp := readState(t, ctx, conn)
		if got := sp.View.State.History; len(got) != 1 || got[0] != "e4" {
			t.Fatalf("%s: unexpected history %v", name, got)
		}
		if sp.View.ToMove != "bob" {
			t.Fatalf("%s: expected bob to move, got %q", name, sp.View.ToMove)
		}
		wantActions := 0
		if name == "bob" {
			wantActions = 20
		}
		if len(sp.View.LegalActions) != wantActions {
			t.Fatalf("%s: expected %d actions, got %d", name, wantActions, len(sp.View.LegalActions))
		}
	}
}

func TestWSActionRejectedOnlyToSender(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	alice, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")
	bob, _ := wsConnect(t, env.ts, g.ID, "bob")
	defer bob.Close(websocket.StatusNormalClosure, "")

	sendWS(ctx, t, bob, "action", chessAction(t, "e7e5"))
	if msg := readError(t, ctx, bob); !strings.Contains(msg, game.ErrOutOfTurn.Error()) {
		t.Fatalf("expected out of turn error, got %q", msg)
	}

	// alice's next message is the state after her own move, not bob's error.
	sendWS(ctx, t, alice, "action", chessAction(t, "d2d4"))
	if sp := readState(t, ctx, alice); len(sp.View.State.History) != 1 || sp.View.State.History[0] != "d4" {
		t.Fatalf("unexpected history %v", sp.View.State.History)
	}
}

func TestWSStart(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	eve, _ := wsConnect(t, env.ts, g.ID, "eve")
	defer eve.Close(websocket.StatusNormalClosure, "")
	sendWS(ctx, t, eve, "start", struct{}{})
	if msg := readError(t, ctx, eve); msg != "only players can start" {
		t.Fatalf("unexpected error: %q", msg)
	}

	alice, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")
	sendWS(ctx, t, alice, "start", struct{}{})
	if sp := readState(t, ctx, alice); sp.View.Game.Status != game.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", sp.View.Game.Status)
	}
	if sp := readState(t, ctx, eve); sp.View.Game.Status != game.StatusInProgress {
		t.Fatalf("spectator: expected in_progress, got %s", sp.View.Game.Status)
	}

	sendWS(ctx, t, alice, "start", struct{}{})
	if msg := readError(t, ctx, alice); !strings.Contains(msg, "already started") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestWSUnknownMessageType(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	conn, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendWS(ctx, t, conn, "dance", struct{}{})
	if msg := readError(t, ctx, conn); msg != "unknown message type: dance" {
		t.Fatalf("unexpected error: %q", msg)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if msg := readError(t, ctx, conn); msg != "invalid message" {
		t.Fatalf("unexpected error: %q", msg)
	}
	sendWS(ctx, t, conn, "state", struct{}{})
	readState(t, ctx, conn)
}

func TestWSReceivesHTTPMoves(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	bob, _ := wsConnect(t, env.ts, g.ID, "bob")
	defer bob.Close(websocket.StatusNormalClosure, "")

	if code := postMove(t, env.ts, g.ID, "alice", "g1f3"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	sp := readState(t, ctx, bob)
	if len(sp.View.State.History) != 1 || sp.View.State.History[0] != "Nf3" {
		t.Fatalf("unexpected history %v", sp.View.State.History)
	}
	if len(sp.View.LegalActions) != 20 {
		t.Fatalf("expected bob to have 20 replies, got %d", len(sp.View.LegalActions))
	}
}

func TestWSPokerViewsArePrivate(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createGameViaAPI(t, env.ts, createGameRequest{Variant: "poker", Players: []string{"alice", "bob"}, Seed: 21})
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	alice, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")
	bob, _ := wsConnect(t, env.ts, g.ID, "bob")
	defer bob.Close(websocket.StatusNormalClosure, "")

	sendWS(ctx, t, bob, "action", actionPayload{Action: game.Action{Poker: &game.PokerAction{Kind: game.Call}}})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		sp := readState(t, ctx, conn)
		for _, s := range sp.View.State.Poker.Seats {
			visible := len(s.Hole) == 2
			if visible != (s.ID == name) {
				t.Fatalf("%s sees %s's hole cards: %v", name, s.ID, s.Hole)
			}
		}
		if len(sp.View.State.Poker.Deck) != 0 {
			t.Fatalf("%s can see the deck", name)
		}
	}
}

func TestWSReconnect(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	first, _ := wsConnect(t, env.ts, g.ID, "alice")
	first.Close(websocket.StatusNormalClosure, "")

	second, sp := wsConnect(t, env.ts, g.ID, "alice")
	defer second.Close(websocket.StatusNormalClosure, "")
	if sp.View.Seat != "white" {
		t.Fatalf("expected white after reconnect, got %q", sp.View.Seat)
	}
	sendWS(ctx, t, second, "action", chessAction(t, "e2e4"))
	if sp := readState(t, ctx, second); len(sp.View.State.History) != 1 {
		t.Fatalf("expected one move, got %v", sp.View.State.History)
	}
}

func TestWSReconnectClosesOldConnection(t *testing.T) {
	env := setupTestEnv(t, nil)
	g := createChess(t, env.ts)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	first, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer first.Close(websocket.StatusNormalClosure, "")
	second, _ := wsConnect(t, env.ts, g.ID, "alice")
	defer second.Close(websocket.StatusNormalClosure, "")

	if _, _, err := first.Read(ctx); err == nil {
		t.Fatal("expected the replaced connection to be closed")
	}
	// A write may still reach the socket buffer, but it must not be applied.
	first.Write(ctx, websocket.MessageText, mustJSON(t, WSMessage{Type: "action", Payload: mustJSON(t, chessAction(t, "d2d4"))}))

	sendWS(ctx, t, second, "action", chessAction(t, "e2e4"))
	sp := readState(t, ctx, second)
	if got := sp.View.State.History; len(got) != 1 || got[0] != "e4" {
		t.Fatalf("expected only e4 from the new connection, got %v", got)
	}
	moves, err := env.mgr.Moves(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 1 || moves[0].Action != "e2e4" {
		t.Fatalf("unexpected moves %+v", moves)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
