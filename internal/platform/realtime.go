package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds the websocket dial plus subscribe ack.
const DefaultHandshakeTimeout = 10 * time.Second

// ChangeType classifies a realtime document change.
type ChangeType string

const (
	ChangeCreated ChangeType = "create"
	ChangeUpdated ChangeType = "update"
	ChangeDeleted ChangeType = "delete"
)

// ChangeEvent is a single document change delivered over the realtime
// feed. Document holds the full document as stored after the change.
type ChangeEvent struct {
	Type       ChangeType
	Collection string
	Document   json.RawMessage
}

// Frame types on the realtime wire.
const (
	frameSubscribe = "subscribe"
	frameConnected = "connected"
	frameEvent     = "event"
	frameError     = "error"
)

type subscribeRequest struct {
	Type       string            `json:"type"`
	Collection string            `json:"collection"`
	Filter     map[string]string `json:"filter,omitempty"`
}

type serverFrame struct {
	Type       string          `json:"type"`
	Event      ChangeType      `json:"event,omitempty"`
	Collection string          `json:"collection,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// Realtime opens websocket subscriptions against the platform's change
// feed.
type Realtime struct {
	client *Client
	dialer *websocket.Dialer
	logger *slog.Logger
}

// RealtimeOption configures a Realtime service.
type RealtimeOption func(*Realtime)

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(d time.Duration) RealtimeOption {
	return func(r *Realtime) {
		r.dialer.HandshakeTimeout = d
	}
}

// NewRealtime creates a Realtime service over the client.
func NewRealtime(c *Client, opts ...RealtimeOption) *Realtime {
	r := &Realtime{
		client: c,
		dialer: &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		logger: c.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe opens a subscription for changes to one collection,
// optionally filtered by field equality. It returns once the platform
// has acknowledged the subscription; events then flow on the returned
// channel until Close is called or the connection drops.
func (r *Realtime) Subscribe(ctx context.Context, collection string, filter map[string]string) (*Channel, error) {
	if collection == "" {
		return nil, errors.New("collection is required")
	}

	wsURL, err := r.wsEndpoint()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(HeaderAPIKey, r.client.apiKey)
	if token := r.client.AuthToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := r.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, parseAPIError(resp)
		}
		return nil, fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	req := subscribeRequest{Type: frameSubscribe, Collection: collection, Filter: filter}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe request: %w", err)
	}

	// The platform acknowledges the subscription before any events flow.
	ackDeadline := time.Now().Add(r.dialer.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(ackDeadline) {
		ackDeadline = d
	}
	_ = conn.SetReadDeadline(ackDeadline)

	var ack serverFrame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read subscribe ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	switch ack.Type {
	case frameConnected:
	case frameError:
		conn.Close()
		return nil, &APIError{Status: http.StatusBadRequest, Message: ack.Message}
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected ack frame %q", ack.Type)
	}

	ch := &Channel{
		conn:   conn,
		events: make(chan ChangeEvent, 16),
		done:   make(chan struct{}),
		logger: r.logger,
	}
	go ch.readLoop()

	r.logger.Debug("realtime subscription opened", "collection", collection)
	return ch, nil
}

// wsEndpoint derives the websocket URL from the client's endpoint.
func (r *Realtime) wsEndpoint() (string, error) {
	u, err := url.Parse(r.client.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid platform endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/realtime"
	return u.String(), nil
}

// Channel is one open realtime subscription.
type Channel struct {
	conn   *websocket.Conn
	events chan ChangeEvent
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Events returns the stream of document changes. The channel is closed
// when the subscription ends; check Err for the reason.
func (ch *Channel) Events() <-chan ChangeEvent {
	return ch.events
}

// Err reports why the event stream ended. It returns nil while the
// stream is live and after a clean Close.
func (ch *Channel) Err() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.err
}

// Close terminates the subscription. It is safe to call any number of
// times, including after the stream has already ended; disconnect
// errors are swallowed.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		close(ch.done)
		_ = ch.conn.Close()
	})
	return nil
}

func (ch *Channel) setErr(err error) {
	ch.mu.Lock()
	if ch.err == nil {
		ch.err = err
	}
	ch.mu.Unlock()
}

func (ch *Channel) readLoop() {
	defer close(ch.events)

	for {
		var frame serverFrame
		if err := ch.conn.ReadJSON(&frame); err != nil {
			select {
			case <-ch.done:
				// Closed locally, not a failure.
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					ch.setErr(fmt.Errorf("realtime connection lost: %w", err))
				}
				_ = ch.conn.Close()
			}
			return
		}

		switch frame.Type {
		case frameEvent:
			ev := ChangeEvent{
				Type:       frame.Event,
				Collection: frame.Collection,
				Document:   frame.Document,
			}
			select {
			case ch.events <- ev:
			case <-ch.done:
				return
			}
		case frameError:
			ch.setErr(&APIError{Status: http.StatusBadGateway, Message: frame.Message})
			_ = ch.conn.Close()
			return
		default:
			// Ignore unknown frame types so the platform can add new
			// ones without breaking older clients.
		}
	}
}
