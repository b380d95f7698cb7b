package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDocumentChanged EventType = "document_changed"
	EventDocumentLoaded  EventType = "document_loaded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ChangeEvent is emitted after a mutation has been committed to the document.
type ChangeEvent struct {
	EventBase

	// Operation names the store method that produced the change, e.g. "add_layer".
	Operation string `json:"operation"`

	// Previous is the document before the change.
	Previous Document `json:"-"`

	// Document is the committed snapshot. Its layers are immutable and may be
	// retained by the receiver.
	Document Document `json:"-"`
}

// Hooks defines callbacks for store observability.
type Hooks struct {
	OnChange func(context.Context, *ChangeEvent)
}
