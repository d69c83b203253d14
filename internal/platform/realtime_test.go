package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newRealtimeClient starts a websocket test server and returns a
// Realtime service dialing it. The handler drives the server side of
// one subscription.
func newRealtimeClient(t *testing.T, handler func(t *testing.T, conn *websocket.Conn)) *Realtime {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/realtime" {
			t.Errorf("path = %s, want /v1/realtime", r.URL.Path)
		}
		if r.Header.Get(HeaderAPIKey) != "test-api-key" {
			t.Errorf("API key header = %q, want test-api-key", r.Header.Get(HeaderAPIKey))
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(t, conn)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-api-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return NewRealtime(client, WithHandshakeTimeout(2*time.Second))
}

// acceptSubscribe reads the subscribe frame and acknowledges it.
func acceptSubscribe(t *testing.T, conn *websocket.Conn) subscribeRequest {
	t.Helper()

	var req subscribeRequest
	if err := conn.ReadJSON(&req); err != nil {
		t.Errorf("failed to read subscribe frame: %v", err)
		return req
	}
	if req.Type != frameSubscribe {
		t.Errorf("frame type = %q, want subscribe", req.Type)
	}
	if err := conn.WriteJSON(serverFrame{Type: frameConnected}); err != nil {
		t.Errorf("failed to write ack: %v", err)
	}
	return req
}

// closeCleanly sends a close frame and waits for the client's echo.
func closeCleanly(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, _ = conn.ReadMessage()
}

func recvEvent(t *testing.T, ch *Channel) (ChangeEvent, bool) {
	t.Helper()

	select {
	case ev, ok := <-ch.Events():
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ChangeEvent{}, false
	}
}

func TestRealtime_SubscribeAndReceive(t *testing.T) {
	t.Parallel()

	rt := newRealtimeClient(t, func(t *testing.T, conn *websocket.Conn) {
		req := acceptSubscribe(t, conn)
		if req.Collection != "activity_logs" {
			t.Errorf("collection = %q, want activity_logs", req.Collection)
		}
		if req.Filter["projectId"] != "p1" {
			t.Errorf("filter = %v, want projectId=p1", req.Filter)
		}

		doc, _ := json.Marshal(map[string]string{"id": "e1", "action": "create"})
		conn.WriteJSON(serverFrame{Type: frameEvent, Event: ChangeCreated, Collection: "activity_logs", Document: doc})
		conn.WriteJSON(serverFrame{Type: frameEvent, Event: ChangeUpdated, Collection: "activity_logs", Document: doc})
		closeCleanly(conn)
	})

	ch, err := rt.Subscribe(context.Background(), "activity_logs", map[string]string{"projectId": "p1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer ch.Close()

	ev, ok := recvEvent(t, ch)
	if !ok {
		t.Fatal("stream ended before first event")
	}
	if ev.Type != ChangeCreated {
		t.Errorf("event type = %q, want create", ev.Type)
	}
	if ev.Collection != "activity_logs" {
		t.Errorf("collection = %q, want activity_logs", ev.Collection)
	}

	var doc map[string]string
	if err := json.Unmarshal(ev.Document, &doc); err != nil {
		t.Fatalf("failed to decode event document: %v", err)
	}
	if doc["id"] != "e1" {
		t.Errorf("document id = %q, want e1", doc["id"])
	}

	if ev, ok = recvEvent(t, ch); !ok || ev.Type != ChangeUpdated {
		t.Errorf("second event = (%v, %v), want update", ev.Type, ok)
	}

	// Server closed cleanly, so the stream ends without an error.
	if _, ok = recvEvent(t, ch); ok {
		t.Error("expected stream to end after server close")
	}
	if err := ch.Err(); err != nil {
		t.Errorf("expected nil error after clean close, got %v", err)
	}
}

func TestRealtime_SubscribeRejected(t *testing.T) {
	t.Parallel()

	rt := newRealtimeClient(t, func(t *testing.T, conn *websocket.Conn) {
		var req subscribeRequest
		conn.ReadJSON(&req)
		conn.WriteJSON(serverFrame{Type: frameError, Message: "unknown collection"})
	})

	_, err := rt.Subscribe(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "unknown collection" {
		t.Errorf("message = %q, want unknown collection", apiErr.Message)
	}
}

func TestRealtime_ConnectionLost(t *testing.T) {
	t.Parallel()

	rt := newRealtimeClient(t, func(t *testing.T, conn *websocket.Conn) {
		acceptSubscribe(t, conn)
		// Drop the TCP connection without a close frame.
		conn.UnderlyingConn().Close()
	})

	ch, err := rt.Subscribe(context.Background(), "activity_logs", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer ch.Close()

	if _, ok := recvEvent(t, ch); ok {
		t.Fatal("expected stream to end after connection drop")
	}
	if ch.Err() == nil {
		t.Error("expected a connection error, got nil")
	}
}

func TestChannel_CloseIdempotent(t *testing.T) {
	t.Parallel()

	rt := newRealtimeClient(t, func(t *testing.T, conn *websocket.Conn) {
		acceptSubscribe(t, conn)
		// Hold the connection open until the client hangs up.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	ch, err := rt.Subscribe(context.Background(), "activity_logs", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ch.Close(); err != nil {
		t.Errorf("first Close() = %v, want nil", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	if _, ok := recvEvent(t, ch); ok {
		t.Error("expected events channel to be closed")
	}
	if err := ch.Err(); err != nil {
		t.Errorf("expected nil error after local close, got %v", err)
	}
}

func TestRealtime_RequiresCollection(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.example.com", "key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rt := NewRealtime(client)

	if _, err := rt.Subscribe(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty collection, got nil")
	}
}
