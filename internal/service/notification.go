package service

import (
	"encoding/json"
	"log"
	"time"

	"backend/internal/websocket"

	"github.com/google/uuid"
)

// ApprovalEvent is pushed to connected clients after a decision lands.
type ApprovalEvent struct {
	Event     string    `json:"event"` // approval.approved / approval.rejected
	Kind      string    `json:"kind"`
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationSink delivers approval events to interested listeners.
// Delivery is best-effort; decisions never fail on a sink error.
type NotificationSink interface {
	Publish(event ApprovalEvent)
}

// HubSink broadcasts events over the WebSocket hub.
type HubSink struct {
	hub *websocket.Hub
}

func NewHubSink(hub *websocket.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Publish(event ApprovalEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("notification: failed to marshal event: %v", err)
		return
	}
	// Non-blocking: drop the event if the hub is not draining.
	select {
	case s.hub.Broadcast <- payload:
	default:
		log.Printf("notification: hub busy, dropped %s event for %s", event.Event, event.ID)
	}
}

// NopSink discards all events. Used in tests and when the hub is disabled.
type NopSink struct{}

func (NopSink) Publish(ApprovalEvent) {}
