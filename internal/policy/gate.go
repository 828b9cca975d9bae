package policy

import (
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// Gate drives the OperationLog state machine:
//
//	pending -> processing -> completed | failed | cancelled
//
// Terminal states stamp CompletedTime exactly once. Gate holds no state of its
// own; callers persist the mutated log.
type Gate struct {
	now func() time.Time
}

func NewGate(now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now}
}

// Configure copies a decision's requirements onto a fresh operation.
func (g *Gate) Configure(op *domain.OperationLog, d Decision) {
	op.VerificationRequired = d.RequireVerification
	if d.MinVerificationCount != nil && *d.MinVerificationCount > 0 {
		op.MinVerificationCount = *d.MinVerificationCount
	}
	if d.MinConfidence != nil {
		v := *d.MinConfidence
		op.MinConfidence = &v
	}
	if d.MaxAttempts != nil {
		op.MaxAttempts = *d.MaxAttempts
	}
}

// Start moves a pending operation to processing.
func (g *Gate) Start(op *domain.OperationLog) error {
	switch op.Status {
	case domain.OperationPending:
		op.Status = domain.OperationProcessing
		return nil
	case domain.OperationProcessing:
		return nil
	default:
		return transitionError(op.Status, domain.OperationProcessing)
	}
}

// RecordAttempt counts one verification attempt. A success that brings the
// count to MinVerificationCount completes verification. Reaching MaxAttempts
// without satisfying verification fails the operation and returns
// ErrLimitExceeded.
func (g *Gate) RecordAttempt(op *domain.OperationLog, result domain.VerificationResult) error {
	if op.IsTerminal() {
		return transitionError(op.Status, domain.OperationProcessing)
	}
	if !result.IsValid() {
		return domain.ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid result %q", result))
	}
	if err := g.Start(op); err != nil {
		return err
	}

	op.VerificationCount++
	if result == domain.ResultSuccess && op.VerificationCount >= op.MinVerificationCount {
		op.VerificationCompleted = true
	}

	if op.MaxAttempts > 0 && op.VerificationCount >= op.MaxAttempts && !op.IsVerificationSatisfied() {
		g.terminate(op, domain.OperationFailed, domain.ErrLimitExceeded.Name)
		return domain.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("operation %s used %d of %d attempts", op.OperationID, op.VerificationCount, op.MaxAttempts))
	}
	return nil
}

// CheckFrequency fails an open operation that is not yet satisfied once the
// attempts counted in any limit's window reach its MaxAttempts. counts maps
// window seconds to attempts and must include the attempt being recorded.
func (g *Gate) CheckFrequency(op *domain.OperationLog, limits []FrequencyLimit, counts map[int]int) error {
	if op.IsTerminal() || op.IsVerificationSatisfied() {
		return nil
	}
	for _, l := range limits {
		seen := counts[l.Window]
		if seen < l.MaxAttempts {
			continue
		}
		g.terminate(op, domain.OperationFailed, domain.ErrLimitExceeded.Name)
		return domain.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("user %s made %d attempts within %ds, limit is %d", op.UserID, seen, l.Window, l.MaxAttempts))
	}
	return nil
}

// Complete finishes the operation. Operations that require verification must
// be satisfied first, otherwise ErrVerificationRequired is returned and the
// log is left untouched.
func (g *Gate) Complete(op *domain.OperationLog) error {
	if op.Status == domain.OperationCompleted {
		return nil
	}
	if op.IsTerminal() {
		return transitionError(op.Status, domain.OperationCompleted)
	}
	if !op.IsVerificationSatisfied() {
		return domain.ErrVerificationRequired.WithMessage(
			fmt.Sprintf("operation %s has %d of %d required verifications", op.OperationID, op.VerificationCount, op.MinVerificationCount))
	}
	g.terminate(op, domain.OperationCompleted, "")
	return nil
}

func (g *Gate) Fail(op *domain.OperationLog, reason string) error {
	if op.Status == domain.OperationFailed {
		return nil
	}
	if op.IsTerminal() {
		return transitionError(op.Status, domain.OperationFailed)
	}
	g.terminate(op, domain.OperationFailed, reason)
	return nil
}

func (g *Gate) Cancel(op *domain.OperationLog) error {
	if op.Status == domain.OperationCancelled {
		return nil
	}
	if op.IsTerminal() {
		return transitionError(op.Status, domain.OperationCancelled)
	}
	g.terminate(op, domain.OperationCancelled, "")
	return nil
}

// CheckTimeout fails an open operation that started more than timeout ago and
// returns ErrVerificationTimeout. A zero timeout disables the check.
func (g *Gate) CheckTimeout(op *domain.OperationLog, timeout time.Duration) error {
	if timeout <= 0 || op.IsTerminal() {
		return nil
	}
	elapsed := g.now().Sub(op.StartedTime)
	if elapsed <= timeout {
		return nil
	}
	g.terminate(op, domain.OperationFailed, domain.ErrVerificationTimeout.Name)
	return domain.ErrVerificationTimeout.WithMessage(
		fmt.Sprintf("operation %s exceeded %s", op.OperationID, timeout))
}

func (g *Gate) terminate(op *domain.OperationLog, status domain.OperationStatus, reason string) {
	op.Status = status
	if reason != "" {
		op.FailureReason = reason
	}
	if op.CompletedTime == nil {
		now := g.now()
		op.CompletedTime = &now
	}
}

func transitionError(from, to domain.OperationStatus) error {
	return domain.ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot move operation from %s to %s", from, to))
}
