// Package audit records cast5cms operations in a tamper-evident log.
//
// The audit log is kept apart from request logs. Each entry is one JSON
// line chained to its predecessor by a SHA-256 hash, so edits or deletions
// are detected by VerifyChain.
//
// Rules:
//   - A failed audit write fails the audited operation
//   - Keys and plaintext never appear in events
//   - Timestamps are UTC
package audit

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// EventType represents the category of audit event.
type EventType string

const (
	// Parameter events
	EventParamsGenerated EventType = "PARAMS_GENERATED"
	EventParamsConverted EventType = "PARAMS_CONVERTED"

	// Originator information events
	EventOriginatorAssembled EventType = "ORIGINATOR_ASSEMBLED"

	// EnvelopedData events
	EventEnvelopeCreated EventType = "ENVELOPE_CREATED"
	EventEnvelopeOpened  EventType = "ENVELOPE_OPENED"
)

// Result represents the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// ResultOf maps a success flag to a Result.
func ResultOf(success bool) Result {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// Actor represents who performed the action.
type Actor struct {
	Type string `json:"type"`           // "user" or "service"
	ID   string `json:"id"`             // username or service name
	Host string `json:"host,omitempty"` // hostname or remote address
}

// Object represents what was acted upon.
type Object struct {
	Type string `json:"type"`           // "parameters", "originator_info", "enveloped_data"
	Path string `json:"path,omitempty"` // input or output file
	Size int    `json:"size,omitempty"` // encoded size in bytes
}

// Context provides additional details about the operation.
type Context struct {
	Algorithm    string `json:"algorithm,omitempty"`
	Format       string `json:"format,omitempty"`        // parameter encoding format
	TargetFormat string `json:"target_format,omitempty"` // conversion target
	KeyLength    int    `json:"key_length,omitempty"`
	Certificates int    `json:"certificates,omitempty"`
	CRLs         *int   `json:"crls,omitempty"` // nil when the crls field is absent
	Version      int    `json:"version,omitempty"`
	Reason       string `json:"reason,omitempty"` // failure reason
}

// Event represents a single audit log entry.
type Event struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"` // RFC3339 UTC
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
	Hash      string    `json:"hash"`
}

// NewEvent creates an event stamped with the current time and the local
// user as actor.
func NewEvent(eventType EventType, result Result) *Event {
	hostname, _ := os.Hostname()

	return &Event{
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Actor: Actor{
			Type: "user",
			ID:   currentUser(),
			Host: hostname,
		},
		Result: result,
	}
}

func currentUser() string {
	for _, env := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(env); u != "" {
			return u
		}
	}
	return "unknown"
}

// WithObject sets the object field.
func (e *Event) WithObject(obj Object) *Event {
	e.Object = obj
	return e
}

// WithContext sets the context field.
func (e *Event) WithContext(ctx Context) *Event {
	e.Context = ctx
	return e
}

// WithActor overrides the default actor.
func (e *Event) WithActor(actor Actor) *Event {
	e.Actor = actor
	return e
}

// WithError marks the event as failed and records err as the reason.
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Result = ResultFailure
		e.Context.Reason = err.Error()
	}
	return e
}

// Validate checks that required fields are present.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return errors.New("event_type is required")
	case e.Timestamp == "":
		return errors.New("timestamp is required")
	case e.Actor.Type == "" || e.Actor.ID == "":
		return errors.New("actor type and id are required")
	case e.Result == "":
		return errors.New("result is required")
	}
	return nil
}

// hashedEvent is the part of Event covered by the hash.
type hashedEvent struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
}

// CanonicalJSON returns the event without its Hash field, as hashed.
func (e *Event) CanonicalJSON() ([]byte, error) {
	return json.Marshal(hashedEvent{
		EventType: e.EventType,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Object:    e.Object,
		Context:   e.Context,
		Result:    e.Result,
		HashPrev:  e.HashPrev,
	})
}

// JSON returns the full event as JSON.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
