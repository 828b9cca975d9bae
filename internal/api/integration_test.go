//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/database"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/metrics"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/repository"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/service"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/webhook"
)

const callbackSecret = "integration-secret"

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "faceverify_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	connStr := fmt.Sprintf("postgres://test:test@%s:%s/faceverify_test?sslmode=disable", host, port.Port())

	if err := database.MigrateUp(ctx, connStr, "faceverify_test"); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(connStr))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func newIntegrationRouter(t *testing.T) *Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	auditLog := audit.NewSlogLogger(logger)

	strategies := repository.NewStrategyRepository(testDB)
	rules := repository.NewRuleRepository(testDB)
	profiles := repository.NewProfileRepository(testDB)
	operations := repository.NewOperationRepository(testDB)
	records := repository.NewVerificationRepository(testDB)
	counter := ratelimit.NewPGCounter(testDB, 24*time.Hour)

	resolver := policy.NewResolver(strategies, rules)
	evaluator := policy.NewEvaluator()

	router := NewRouter(logger, &Dependencies{
		Profiles:   service.NewProfileService(profiles).WithAudit(auditLog).WithMetrics(m).WithLogger(logger),
		Strategies: service.NewStrategyService(strategies, rules, resolver).WithAudit(auditLog).WithLogger(logger),
		Operations: service.NewOperationService(resolver, evaluator, profiles, operations, records, counter).
			WithMetrics(m).WithAudit(auditLog).WithLogger(logger),
		Verifier: webhook.NewVerifier(callbackSecret, 5*time.Minute),
		DB:       testDB,
		Gatherer: reg,
	})
	router.Setup()
	return router
}

func call(t *testing.T, r *Router, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return send(t, r, req)
}

func send(t *testing.T, r *Router, req *http.Request) (int, map[string]interface{}) {
	t.Helper()

	resp, err := r.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]interface{}) float64 {
	detail, _ := body["error"].(map[string]interface{})
	code, _ := detail["code"].(float64)
	return code
}

func TestIntegration_ReadyPingsDatabase(t *testing.T) {
	router := newIntegrationRouter(t)

	status, body := call(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestIntegration_VerifiedPaymentFlow(t *testing.T) {
	router := newIntegrationRouter(t)

	status, strategy := call(t, router, http.MethodPost, "/v1/strategies", map[string]interface{}{
		"name":          "payment-default",
		"business_type": "payment",
		"priority":      10,
		"config":        map[string]interface{}{"require_verification": false, "max_attempts": 2},
	})
	require.Equal(t, http.StatusCreated, status)
	strategyID := strategy["id"].(string)

	status, _ = call(t, router, http.MethodPost, "/v1/strategies/"+strategyID+"/rules", map[string]interface{}{
		"rule_type":  "amount",
		"rule_name":  "large-payment",
		"conditions": map[string]interface{}{"min_amount": 1000},
		"actions": map[string]interface{}{
			"require_verification":   true,
			"min_confidence":         0.9,
			"min_verification_count": 1,
		},
	})
	require.Equal(t, http.StatusCreated, status)

	t.Run("small amount needs no verification", func(t *testing.T) {
		status, body := call(t, router, http.MethodPost, "/v1/decisions", map[string]interface{}{
			"user_id": "alice", "business_type": "payment",
			"context": map[string]interface{}{"amount": 50},
		})
		require.Equal(t, http.StatusOK, status)
		decision := body["decision"].(map[string]interface{})
		assert.Equal(t, false, decision["require_verification"])
		assert.Equal(t, strategyID, body["strategy_id"])
	})

	t.Run("begin without a profile is rejected", func(t *testing.T) {
		status, body := call(t, router, http.MethodPost, "/v1/operations", map[string]interface{}{
			"user_id": "alice", "operation_id": "pay-0", "operation_type": "payment",
			"business_context": map[string]interface{}{"amount": 5000},
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, float64(3002), errorCode(body))
	})

	status, _ = call(t, router, http.MethodPost, "/v1/profiles", map[string]interface{}{
		"user_id": "alice", "face_features": "ciphertext", "quality_score": 0.97,
	})
	require.Equal(t, http.StatusCreated, status)

	status, begun := call(t, router, http.MethodPost, "/v1/operations", map[string]interface{}{
		"user_id": "alice", "operation_id": "pay-1", "operation_type": "payment",
		"business_context": map[string]interface{}{"amount": 5000},
	})
	require.Equal(t, http.StatusCreated, status)
	op := begun["operation"].(map[string]interface{})
	assert.Equal(t, "pending", op["status"])
	assert.Equal(t, true, op["verification_required"])

	t.Run("complete before verification is forbidden", func(t *testing.T) {
		status, body := call(t, router, http.MethodPost, "/v1/operations/pay-1/complete", nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, float64(3007), errorCode(body))
	})

	t.Run("low confidence attempt is recorded as failed", func(t *testing.T) {
		status, body := call(t, router, http.MethodPost, "/v1/operations/pay-1/attempts", map[string]interface{}{
			"user_id": "alice", "result": "success", "confidence_score": 0.5,
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "processing", body["status"])
		assert.Equal(t, false, body["verification_satisfied"])
	})

	callback := providerSuccess("pay-1", "alice", 0.96)
	callback.AttemptID = "provider-att-1"
	payload, err := json.Marshal(webhook.CallbackPayload{Type: webhook.EventVerificationResult, Data: callback})
	require.NoError(t, err)

	deliver := func(t *testing.T) map[string]interface{} {
		sig, ts := webhook.SignTimestamped(callbackSecret, payload, time.Now())
		req := httptest.NewRequest(http.MethodPost, "/v1/callbacks/verification", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(webhook.SignatureHeader, sig)
		req.Header.Set(webhook.TimestampHeader, ts)

		status, body := send(t, router, req)
		require.Equal(t, http.StatusOK, status)
		return body
	}

	t.Run("signed callback satisfies the operation", func(t *testing.T) {
		body := deliver(t)
		assert.Equal(t, "accepted", body["status"])
		assert.Equal(t, "processing", body["operation_status"])
	})

	t.Run("redelivered callback is not counted again", func(t *testing.T) {
		body := deliver(t)
		assert.Equal(t, "accepted", body["status"])

		status, op := call(t, router, http.MethodGet, "/v1/operations/pay-1", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), op["verification_count"])
	})

	t.Run("complete after verification", func(t *testing.T) {
		status, body := call(t, router, http.MethodPost, "/v1/operations/pay-1/complete", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, float64(2), body["verification_count"])
	})

	t.Run("records list both attempts", func(t *testing.T) {
		status, body := call(t, router, http.MethodGet, "/v1/operations/pay-1/records", nil)
		require.Equal(t, http.StatusOK, status)
		records := body["records"].([]interface{})
		require.Len(t, records, 2)
	})

	t.Run("strategy with records cannot be deleted", func(t *testing.T) {
		status, _ := call(t, router, http.MethodDelete, "/v1/strategies/"+strategyID, nil)
		assert.Equal(t, http.StatusConflict, status)
	})
}

func providerSuccess(operationID, userID string, confidence float64) provider.Outcome {
	return provider.Outcome{
		OperationID:     operationID,
		UserID:          userID,
		Result:          domain.ResultSuccess,
		ConfidenceScore: &confidence,
	}
}
