package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/metrics"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/ratelimit"
)

const (
	defaultOperationTimeout = 5 * time.Minute
	defaultCASRetries       = 3
)

// DecisionRequest asks whether userID must verify before an operation of
// BusinessType. Context carries the rule inputs (amount, risk_score, ...).
type DecisionRequest struct {
	UserID       string                 `json:"user_id"`
	BusinessType string                 `json:"business_type"`
	Context      map[string]interface{} `json:"context"`
}

type DecisionResult struct {
	Decision   policy.Decision `json:"decision"`
	StrategyID *uuid.UUID      `json:"strategy_id,omitempty"`
	Strategy   string          `json:"strategy,omitempty"`
}

type BeginRequest struct {
	UserID          string                 `json:"user_id"`
	OperationID     string                 `json:"operation_id"`
	OperationType   string                 `json:"operation_type"`
	BusinessContext map[string]interface{} `json:"business_context"`
}

type BeginResult struct {
	Operation *domain.OperationLog `json:"operation"`
	Decision  policy.Decision      `json:"decision"`
}

// OperationService drives operations from decision to terminal state.
// Writes go through the optimistic version check of the operation store and
// are retried on conflict after reloading.
type OperationService struct {
	resolver   *policy.Resolver
	evaluator  *policy.Evaluator
	gate       *policy.Gate
	profiles   ProfileFinder
	operations OperationStore
	records    RecordStore
	counter    ratelimit.Counter

	metrics *metrics.Metrics
	audit   audit.Logger
	logger  *slog.Logger

	timeout    time.Duration
	casRetries int
	now        func() time.Time
}

func NewOperationService(
	resolver *policy.Resolver,
	evaluator *policy.Evaluator,
	profiles ProfileFinder,
	operations OperationStore,
	records RecordStore,
	counter ratelimit.Counter,
) *OperationService {
	return &OperationService{
		resolver:   resolver,
		evaluator:  evaluator,
		gate:       policy.NewGate(time.Now),
		profiles:   profiles,
		operations: operations,
		records:    records,
		counter:    counter,
		audit:      &audit.NoOpLogger{},
		logger:     slog.Default(),
		timeout:    defaultOperationTimeout,
		casRetries: defaultCASRetries,
		now:        time.Now,
	}
}

// WithTimeout sets how long an operation may stay open. Zero disables it.
func (s *OperationService) WithTimeout(d time.Duration) *OperationService {
	s.timeout = d
	return s
}

func (s *OperationService) WithCASRetries(n int) *OperationService {
	if n < 0 {
		n = 0
	}
	s.casRetries = n
	return s
}

func (s *OperationService) WithClock(now func() time.Time) *OperationService {
	s.now = now
	s.gate = policy.NewGate(now)
	return s
}

func (s *OperationService) WithMetrics(m *metrics.Metrics) *OperationService {
	s.metrics = m
	return s
}

func (s *OperationService) WithAudit(l audit.Logger) *OperationService {
	s.audit = l
	return s
}

func (s *OperationService) WithLogger(l *slog.Logger) *OperationService {
	s.logger = l.With("component", "operation_service")
	return s
}

// Decide resolves the active strategy and evaluates it without side effects
// beyond reading attempt counters.
func (s *OperationService) Decide(ctx context.Context, req DecisionRequest) (*DecisionResult, error) {
	start := s.now()

	strategy, err := s.resolver.Resolve(ctx, req.BusinessType)
	if err != nil {
		return nil, err
	}

	evalCtx, err := s.evaluationContext(ctx, req, strategy)
	if err != nil {
		return nil, err
	}

	result := &DecisionResult{Decision: s.evaluator.Evaluate(strategy, evalCtx)}
	if strategy != nil {
		id := strategy.ID
		result.StrategyID = &id
		result.Strategy = strategy.Name
	}

	s.metrics.ObserveDecision(req.BusinessType, result.Decision.RequireVerification, s.now().Sub(start))
	s.logAudit(ctx, audit.Event{
		EventType:    audit.EventDecisionMade,
		UserID:       req.UserID,
		BusinessType: req.BusinessType,
		StrategyID:   result.StrategyID,
		Success:      true,
		Metadata:     map[string]string{"require_verification": strconv.FormatBool(result.Decision.RequireVerification)},
	})

	return result, nil
}

// evaluationContext copies the caller context and adds attempt counts for
// every window the strategy's frequency rules look at.
func (s *OperationService) evaluationContext(ctx context.Context, req DecisionRequest, strategy *domain.VerificationStrategy) (map[string]interface{}, error) {
	evalCtx := make(map[string]interface{}, len(req.Context)+1)
	for k, v := range req.Context {
		evalCtx[k] = v
	}

	windows := policy.FrequencyWindows(strategy)
	if len(windows) == 0 || s.counter == nil || req.UserID == "" {
		return evalCtx, nil
	}

	counts, err := ratelimit.Counts(ctx, s.counter, req.UserID, req.BusinessType, windows, s.now())
	if err != nil {
		return nil, fmt.Errorf("attempt counts for %s: %w", req.UserID, err)
	}
	evalCtx[policy.CtxAttemptCounts] = counts
	return evalCtx, nil
}

// BeginOperation opens an operation configured by the current decision. When
// verification is required the user must own an available face profile.
func (s *OperationService) BeginOperation(ctx context.Context, req BeginRequest) (*BeginResult, error) {
	op := domain.NewOperationLog(req.UserID, req.OperationID, req.OperationType, s.now())
	if req.BusinessContext != nil {
		op.BusinessContext = req.BusinessContext
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	decision, err := s.Decide(ctx, DecisionRequest{
		UserID:       req.UserID,
		BusinessType: req.OperationType,
		Context:      req.BusinessContext,
	})
	if err != nil {
		return nil, err
	}

	s.gate.Configure(op, decision.Decision)
	op.StrategyID = decision.StrategyID

	if op.VerificationRequired {
		if err := s.checkProfile(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.operations.UpsertOperationLog(ctx, op); err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(op.Status), 0, false)
	s.logAudit(ctx, audit.Event{
		EventType:    audit.EventOperationStarted,
		UserID:       op.UserID,
		OperationID:  op.OperationID,
		BusinessType: op.OperationType,
		StrategyID:   op.StrategyID,
		Success:      true,
		Metadata:     map[string]string{"verification_required": strconv.FormatBool(op.VerificationRequired)},
	})

	return &BeginResult{Operation: op, Decision: decision.Decision}, nil
}

func (s *OperationService) checkProfile(ctx context.Context, userID string) error {
	profile, err := s.profiles.FindProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.IsAvailable(s.now()) {
		return domain.ErrProfileExpired.WithMessage(
			fmt.Sprintf("face profile of %s is %s", userID, profileState(profile, s.now())))
	}
	return nil
}

func profileState(p *domain.FaceProfile, now time.Time) string {
	if p.Status == domain.ProfileActive && p.IsExpired(now) {
		return string(domain.ProfileExpired)
	}
	return string(p.Status)
}

func (s *OperationService) GetOperation(ctx context.Context, operationID string) (*domain.OperationLog, error) {
	if operationID == "" {
		return nil, domain.ErrInvalidParameter.WithMessage("operation_id is required")
	}
	return s.operations.GetByOperationID(ctx, operationID)
}

func (s *OperationService) ListRecords(ctx context.Context, operationID string) ([]domain.VerificationRecord, error) {
	if _, err := s.GetOperation(ctx, operationID); err != nil {
		return nil, err
	}
	return s.records.ListByOperation(ctx, operationID)
}

// RecordAttempt applies one verification outcome to its operation. A success
// below the operation's confidence floor counts as a failure. Running out of
// attempts, hitting a frequency rule's max_attempts or running out of time
// fails the operation and the matching error is returned together with the
// persisted log. An outcome whose attempt_id was already counted changes
// nothing and returns the current log.
func (s *OperationService) RecordAttempt(ctx context.Context, outcome provider.Outcome) (*domain.OperationLog, error) {
	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	var (
		record *domain.VerificationRecord
		freq   *attemptWindows
	)
	op, err := s.mutate(ctx, outcome.OperationID, func(op *domain.OperationLog) error {
		record = nil
		if outcome.UserID != "" && outcome.UserID != op.UserID {
			return domain.ErrInvalidParameter.WithMessage("user_id does not match the operation")
		}
		if op.HasAttempt(outcome.AttemptID) {
			s.logger.Debug("attempt already recorded",
				"operation_id", op.OperationID, "attempt_id", outcome.AttemptID)
			return nil
		}
		if err := s.gate.CheckTimeout(op, s.timeout); err != nil {
			return err
		}

		if freq == nil {
			w, err := s.loadAttemptWindows(ctx, op)
			if err != nil {
				return err
			}
			freq = w
		}

		prevCount := op.VerificationCount
		candidate := s.newRecord(op, outcome)
		gateErr := s.gate.RecordAttempt(op, candidate.Result)
		if op.VerificationCount == prevCount {
			return gateErr
		}

		record = candidate
		if outcome.AttemptID != "" {
			op.AttemptIDs = append(op.AttemptIDs, outcome.AttemptID)
		}
		if gateErr != nil {
			return gateErr
		}
		return s.gate.CheckFrequency(op, freq.limits, freq.counts)
	})
	if op == nil || record == nil {
		return op, err
	}

	s.metrics.ObserveAttempt(string(record.Result))
	if perr := s.persistAttempt(ctx, op, record); perr != nil {
		if err == nil {
			return op, perr
		}
		return op, errors.Join(err, perr)
	}

	return op, err
}

// attemptWindows holds the frequency limits of an operation's strategy and
// the attempts seen per window, counting the one being recorded.
type attemptWindows struct {
	limits []policy.FrequencyLimit
	counts map[int]int
}

func (s *OperationService) loadAttemptWindows(ctx context.Context, op *domain.OperationLog) (*attemptWindows, error) {
	w := &attemptWindows{}
	if s.counter == nil {
		return w, nil
	}

	strategy, err := s.resolver.Resolve(ctx, op.OperationType)
	if err != nil {
		return nil, err
	}
	w.limits = policy.FrequencyLimits(strategy)
	if len(w.limits) == 0 {
		return w, nil
	}

	counts, err := ratelimit.Counts(ctx, s.counter, op.UserID, op.OperationType, policy.FrequencyWindows(strategy), s.now())
	if err != nil {
		return nil, fmt.Errorf("attempt counts for %s: %w", op.UserID, err)
	}
	for window := range counts {
		counts[window]++
	}
	w.counts = counts
	return w, nil
}

func (s *OperationService) newRecord(op *domain.OperationLog, outcome provider.Outcome) *domain.VerificationRecord {
	operationID := op.OperationID
	record := &domain.VerificationRecord{
		UserID:           op.UserID,
		BusinessType:     op.OperationType,
		OperationID:      &operationID,
		VerificationType: domain.VerificationOptional,
		Result:           outcome.Result,
		ConfidenceScore:  outcome.ConfidenceScore,
		VerificationTime: outcome.VerificationTime,
		ClientInfo:       outcome.ClientInfo,
	}
	if outcome.AttemptID != "" {
		attemptID := outcome.AttemptID
		record.AttemptID = &attemptID
	}
	if op.StrategyID != nil {
		record.StrategyID = *op.StrategyID
	}
	if op.VerificationRequired {
		record.VerificationType = domain.VerificationRequired
	}

	if perr := outcome.Err(); perr != nil {
		record.AnnotateError(strconv.Itoa(perr.Code), perr.Message)
		if record.Result == domain.ResultSuccess {
			record.Result = domain.ResultFailed
		}
	}

	if record.Result == domain.ResultSuccess && op.MinConfidence != nil &&
		(outcome.ConfidenceScore == nil || *outcome.ConfidenceScore < *op.MinConfidence) {
		record.Result = domain.ResultFailed
		record.AnnotateError(strconv.Itoa(domain.CodeSimilarityTooLow), domain.ErrSimilarityTooLow.Message)
	}

	return record
}

// persistAttempt writes the record and the frequency counter of an attempt
// that is already counted on the operation. Both writes are tried and their
// failures are returned together.
func (s *OperationService) persistAttempt(ctx context.Context, op *domain.OperationLog, record *domain.VerificationRecord) error {
	var errs []error
	if op.StrategyID != nil {
		if err := s.records.AppendVerificationRecord(ctx, record); err != nil {
			s.logger.Error("append verification record failed",
				"operation_id", op.OperationID, "error", err)
			errs = append(errs, fmt.Errorf("append verification record for %s: %w", op.OperationID, err))
		}
	}

	if s.counter != nil {
		if err := s.counter.Record(ctx, op.UserID, op.OperationType, s.now()); err != nil {
			s.logger.Error("record attempt counter failed",
				"operation_id", op.OperationID, "error", err)
			errs = append(errs, fmt.Errorf("record attempt for %s: %w", op.UserID, err))
		}
	}

	e := audit.Event{
		EventType:    audit.EventAttemptRecorded,
		UserID:       op.UserID,
		OperationID:  op.OperationID,
		BusinessType: op.OperationType,
		StrategyID:   op.StrategyID,
		Success:      record.IsSuccessful(),
		Metadata: map[string]string{
			"result":             string(record.Result),
			"verification_count": strconv.Itoa(op.VerificationCount),
		},
	}
	if record.AttemptID != nil {
		e.Metadata["attempt_id"] = *record.AttemptID
	}
	if record.ErrorCode != nil {
		e.Error = *record.ErrorCode
	}
	s.logAudit(ctx, e)

	return errors.Join(errs...)
}

// Complete finishes an operation whose verification requirement is satisfied.
func (s *OperationService) Complete(ctx context.Context, operationID string) (*domain.OperationLog, error) {
	return s.mutate(ctx, operationID, func(op *domain.OperationLog) error {
		if err := s.gate.CheckTimeout(op, s.timeout); err != nil {
			return err
		}
		return s.gate.Complete(op)
	})
}

func (s *OperationService) Fail(ctx context.Context, operationID, reason string) (*domain.OperationLog, error) {
	if reason == "" {
		reason = "FAILED"
	}
	return s.mutate(ctx, operationID, func(op *domain.OperationLog) error {
		return s.gate.Fail(op, reason)
	})
}

func (s *OperationService) Cancel(ctx context.Context, operationID string) (*domain.OperationLog, error) {
	return s.mutate(ctx, operationID, func(op *domain.OperationLog) error {
		return s.gate.Cancel(op)
	})
}

// SweepTimeouts fails up to limit open operations that outlived the timeout.
// It returns how many were failed.
func (s *OperationService) SweepTimeouts(ctx context.Context, limit int) (int, error) {
	if s.timeout <= 0 {
		return 0, nil
	}

	stale, err := s.operations.ListStale(ctx, s.now().Add(-s.timeout), limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range stale {
		op, err := s.mutate(ctx, candidate.OperationID, func(op *domain.OperationLog) error {
			return s.gate.CheckTimeout(op, s.timeout)
		})
		if errors.Is(err, domain.ErrVerificationTimeout) && op != nil {
			swept++
			continue
		}
		if err != nil {
			s.logger.Warn("sweep operation failed", "operation_id", candidate.OperationID, "error", err)
		}
	}

	s.metrics.AddSweptOperations(swept)
	return swept, nil
}

// mutate loads the operation, applies fn and stores the result when fn
// changed it. An error from fn that left the log untouched is returned
// without writing. On a version conflict the load is repeated up to
// casRetries more times.
func (s *OperationService) mutate(ctx context.Context, operationID string, fn func(op *domain.OperationLog) error) (*domain.OperationLog, error) {
	for attempt := 0; ; attempt++ {
		op, err := s.GetOperation(ctx, operationID)
		if err != nil {
			return nil, err
		}

		prevStatus, prevCount := op.Status, op.VerificationCount
		fnErr := fn(op)

		if op.Status == prevStatus && op.VerificationCount == prevCount {
			if fnErr != nil {
				return nil, fnErr
			}
			return op, nil
		}

		err = s.operations.UpsertOperationLog(ctx, op)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			s.metrics.IncrementCASConflicts()
			if attempt < s.casRetries {
				s.logger.Debug("operation version conflict, retrying",
					"operation_id", operationID, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		if op.Status != prevStatus {
			s.transitioned(ctx, op)
		}
		return op, fnErr
	}
}

func (s *OperationService) transitioned(ctx context.Context, op *domain.OperationLog) {
	d, terminal := op.Duration()
	s.metrics.ObserveTransition(string(op.Status), d, terminal)

	var eventType audit.EventType
	switch op.Status {
	case domain.OperationCompleted:
		eventType = audit.EventOperationCompleted
	case domain.OperationFailed:
		eventType = audit.EventOperationFailed
	case domain.OperationCancelled:
		eventType = audit.EventOperationCancelled
	default:
		return
	}

	e := audit.Event{
		EventType:    eventType,
		UserID:       op.UserID,
		OperationID:  op.OperationID,
		BusinessType: op.OperationType,
		StrategyID:   op.StrategyID,
		Success:      op.Status == domain.OperationCompleted,
		Error:        op.FailureReason,
	}
	if secs := op.DurationSeconds(); secs != nil {
		e.Metadata = map[string]string{"duration_seconds": strconv.FormatInt(*secs, 10)}
	}
	s.logAudit(ctx, e)
}

func (s *OperationService) logAudit(ctx context.Context, e audit.Event) {
	e.ID = uuid.New()
	e.Timestamp = s.now()
	if err := s.audit.Log(ctx, e); err != nil {
		s.logger.Warn("audit log failed", "event", e.EventType, "error", err)
	}
}
