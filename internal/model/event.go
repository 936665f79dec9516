// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventJobInspected     EventType = "JOB_INSPECTED"
	EventJobForwarded     EventType = "JOB_FORWARDED"
	EventJobForwardFailed EventType = "JOB_FORWARD_FAILED"
	EventJobDeleted       EventType = "JOB_DELETED"
)

// JobEvent represents a job lifecycle event published to subscribers
type JobEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	JobID     uuid.UUID  `json:"job_id"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewJobEvent creates an event stamped with a fresh ID and the current time
func NewJobEvent(eventType EventType, jobID uuid.UUID, severity string, data JSONObject) JobEvent {
	return JobEvent{
		ID:        uuid.New(),
		EventType: eventType,
		JobID:     jobID,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "epl2-service",
		Severity:  severity,
	}
}
