package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventProfileCreated     EventType = "PROFILE_CREATED"
	EventProfileExpired     EventType = "PROFILE_EXPIRED"
	EventProfileDisabled    EventType = "PROFILE_DISABLED"
	EventStrategyCreated    EventType = "STRATEGY_CREATED"
	EventStrategyDeleted    EventType = "STRATEGY_DELETED"
	EventRuleCreated        EventType = "RULE_CREATED"
	EventDecisionMade       EventType = "DECISION_MADE"
	EventOperationStarted   EventType = "OPERATION_STARTED"
	EventAttemptRecorded    EventType = "ATTEMPT_RECORDED"
	EventOperationCompleted EventType = "OPERATION_COMPLETED"
	EventOperationFailed    EventType = "OPERATION_FAILED"
	EventOperationCancelled EventType = "OPERATION_CANCELLED"
)

// Event is one entry of the verification audit trail.
type Event struct {
	ID           uuid.UUID         `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	EventType    EventType         `json:"event_type"`
	UserID       string            `json:"user_id,omitempty"`
	OperationID  string            `json:"operation_id,omitempty"`
	BusinessType string            `json:"business_type,omitempty"`
	StrategyID   *uuid.UUID        `json:"strategy_id,omitempty"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	}
	if event.OperationID != "" {
		attrs = append(attrs, slog.String("operation_id", event.OperationID))
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}

	l.logger.InfoContext(ctx, "audit_event", attrs...)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
