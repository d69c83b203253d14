// ExecutionOS Activity Tail Example
//
// This is a minimal example of consuming the realtime activity feed over
// the wire directly, without the execos client packages.
//
// Usage:
//   export EXECOS_API_KEY="your_api_key_here"
//   export EXECOS_ENDPOINT="http://localhost:8090"
//   go run main.go <project-id>
//
// Events print as they arrive; stop with ctrl-c.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// subscribeRequest asks the platform for changes to one collection,
// optionally filtered by field equality.
type subscribeRequest struct {
	Type       string            `json:"type"`
	Collection string            `json:"collection"`
	Filter     map[string]string `json:"filter,omitempty"`
}

// serverFrame is every message the platform sends back: the "connected"
// ack, "event" frames carrying a changed document, or an "error".
type serverFrame struct {
	Type       string          `json:"type"`
	Event      string          `json:"event,omitempty"`
	Collection string          `json:"collection,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// activityLog mirrors the documents stored in the activity_logs collection.
type activityLog struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	ActorID    string    `json:"actorId"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"createdAt"`
}

func main() {
	apiKey := os.Getenv("EXECOS_API_KEY")
	if apiKey == "" {
		log.Fatal("EXECOS_API_KEY environment variable is required")
	}

	endpoint := os.Getenv("EXECOS_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.execos.dev"
	}

	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <project-id>", os.Args[0])
	}
	projectID := os.Args[1]

	wsURL, err := realtimeURL(endpoint)
	if err != nil {
		log.Fatalf("Invalid endpoint: %v", err)
	}

	// Dial the realtime endpoint. The API key rides on a header, the same
	// as plain HTTP requests.
	header := http.Header{}
	header.Set("X-Api-Key", apiKey)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		log.Fatalf("Error dialing %s: %v", wsURL, err)
	}
	defer conn.Close()

	// Subscribe to the project's slice of the activity_logs collection.
	sub := subscribeRequest{
		Type:       "subscribe",
		Collection: "activity_logs",
		Filter:     map[string]string{"projectId": projectID},
	}
	if err := conn.WriteJSON(sub); err != nil {
		log.Fatalf("Error sending subscribe request: %v", err)
	}

	// The platform acknowledges the subscription before any events flow.
	var ack serverFrame
	if err := conn.ReadJSON(&ack); err != nil {
		log.Fatalf("Error reading subscribe ack: %v", err)
	}
	switch ack.Type {
	case "connected":
	case "error":
		log.Fatalf("Subscription rejected: %s", ack.Message)
	default:
		log.Fatalf("Unexpected ack frame %q", ack.Type)
	}

	log.Printf("Tailing activity for project %s (ctrl-c to stop)", projectID)

	for {
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			log.Fatalf("Connection lost: %v", err)
		}

		switch frame.Type {
		case "event":
			var entry activityLog
			if err := json.Unmarshal(frame.Document, &entry); err != nil {
				log.Printf("Error parsing document: %v", err)
				continue
			}

			log.Printf("✓ Received %s event: %s", frame.Event, entry.Action)
			log.Printf("  Entity: %s %s", entry.EntityType, entry.EntityID)
			log.Printf("  Actor:  %s", entry.ActorID)
			log.Printf("  Time:   %s", entry.CreatedAt.Local().Format(time.RFC3339))
		case "error":
			log.Fatalf("Subscription ended: %s", frame.Message)
		default:
			// Unknown frame types are skipped so the platform can add new
			// ones without breaking older clients.
		}
	}
}

// realtimeURL derives the websocket URL from the HTTP endpoint.
func realtimeURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/realtime"
	return u.String(), nil
}
