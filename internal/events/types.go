// Package events provides an asynchronous event bus that fans patient-state
// change notifications out to live synchronizer instances without blocking
// the writer.
package events

import (
	"time"
)

// PatientEvent describes one mutation of a patient's stored slice. Every store
// write publishes exactly one event; subscribers reconcile on notification.
type PatientEvent struct {
	PatientID string    // patient whose slice changed
	SessionID string    // session the change belongs to, empty for patient-level fields
	Fields    []string  // names of the replaced fields
	Timestamp time.Time // when the mutation was applied
}

// Consumer represents a subscriber that processes patient events.
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent processes a single patient event
	ProcessEvent(event PatientEvent) error
}

// BusStats contains runtime statistics for monitoring
type BusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
