// Package audit captures an append-only trail of validation lifecycle events.
// Domain services emit through a Publisher; sinks decide where events land
// (memory for tests, Kafka for shared deployments).
package audit

import (
	"context"
	"errors"
	"time"
)

// Event types emitted by the validation engine.
const (
	TypeValidationCreated = "validation_created"
	TypeAutoPassed        = "validation_auto_passed"
	TypeCheckerAction     = "checker_action"
	TypeRulesReplaced     = "rules_replaced"
	TypeTradesImported    = "trades_imported"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time         `json:"timestamp"`
	Type          string            `json:"type"`
	ValidationID  string            `json:"validation_id,omitempty"`
	DocumentID    string            `json:"document_id,omitempty"`
	SystemTradeID string            `json:"system_trade_id,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	Detail        map[string]string `json:"detail,omitempty"`
}

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// ChannelSink forwards events to a Worker inbox so emission never blocks the
// request path. A full buffer drops the event with an error the publisher can
// log.
type ChannelSink chan<- Event

func (c ChannelSink) Append(_ context.Context, event Event) error {
	select {
	case c <- event:
		return nil
	default:
		return errors.New("audit buffer full, event dropped")
	}
}

// Publisher captures structured audit events. It is append-only and delegates
// persistence to a sink so tests can swap implementations easily.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}
