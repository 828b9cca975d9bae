package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	strategyID := uuid.New()

	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantContains  []string
	}{
		{
			name: "decision event",
			event: Event{
				EventType:    EventDecisionMade,
				UserID:       "user-1",
				BusinessType: "payment",
				StrategyID:   &strategyID,
				Success:      true,
				Metadata:     map[string]string{"require_verification": "true"},
			},
			wantEventType: string(EventDecisionMade),
			wantContains:  []string{"user-1", strategyID.String(), "require_verification"},
		},
		{
			name: "failed operation with reason",
			event: Event{
				EventType:   EventOperationFailed,
				UserID:      "user-2",
				OperationID: "op-9",
				Success:     false,
				Error:       "LIMIT_EXCEEDED",
			},
			wantEventType: string(EventOperationFailed),
			wantContains:  []string{"op-9", "LIMIT_EXCEEDED"},
		},
		{
			name: "strategy deleted",
			event: Event{
				EventType:  EventStrategyDeleted,
				StrategyID: &strategyID,
				Success:    true,
			},
			wantEventType: string(EventStrategyDeleted),
			wantContains:  []string{strategyID.String()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			err := NewSlogLogger(logger).Log(context.Background(), tt.event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)
			for _, s := range tt.wantContains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := NewSlogLogger(logger).Log(context.Background(), Event{
		EventType:   EventOperationStarted,
		OperationID: "op-1",
		Success:     true,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)
	assert.Equal(t, "op-1", logEntry["operation_id"])
	assert.NotContains(t, logEntry, "user_id")
}

func TestSlogLogger_Log_UsesProvidedID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	expectedID := uuid.New()
	err := NewSlogLogger(logger).Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		EventType: EventOperationCompleted,
		Success:   true,
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), expectedID.String())
	assert.Contains(t, buf.String(), "2024-01-15T10:30:00Z")
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}
	for i := 0; i < 10; i++ {
		assert.NoError(t, logger.Log(context.Background(), Event{EventType: EventAttemptRecorded}))
	}
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{EventType: EventProfileExpired, Success: true})
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "operation_id")
	assert.NotContains(t, jsonStr, "strategy_id")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "metadata")
}
