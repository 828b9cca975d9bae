package domain

// CollectionMethod describes how a face profile was captured.
type CollectionMethod string

const (
	CollectionManual CollectionMethod = "manual"
	CollectionAuto   CollectionMethod = "auto"
	CollectionImport CollectionMethod = "import"
)

var collectionMethodDescriptions = map[CollectionMethod]string{
	CollectionManual: "Manual collection",
	CollectionAuto:   "Automatic collection",
	CollectionImport: "Imported",
}

func (m CollectionMethod) IsValid() bool {
	_, ok := collectionMethodDescriptions[m]
	return ok
}

func (m CollectionMethod) Description() string {
	return collectionMethodDescriptions[m]
}

// ProfileStatus is the lifecycle state of a face profile.
type ProfileStatus string

const (
	ProfileActive   ProfileStatus = "active"
	ProfileExpired  ProfileStatus = "expired"
	ProfileDisabled ProfileStatus = "disabled"
)

var profileStatusDescriptions = map[ProfileStatus]string{
	ProfileActive:   "Active",
	ProfileExpired:  "Expired",
	ProfileDisabled: "Disabled",
}

func (s ProfileStatus) IsValid() bool {
	_, ok := profileStatusDescriptions[s]
	return ok
}

func (s ProfileStatus) Description() string {
	return profileStatusDescriptions[s]
}

// RuleType selects how a rule's conditions are matched against the operation context.
type RuleType string

const (
	RuleTypeTime      RuleType = "time"
	RuleTypeFrequency RuleType = "frequency"
	RuleTypeRisk      RuleType = "risk"
	RuleTypeAmount    RuleType = "amount"
)

var ruleTypeDescriptions = map[RuleType]string{
	RuleTypeTime:      "Time window rule",
	RuleTypeFrequency: "Attempt frequency rule",
	RuleTypeRisk:      "Risk score rule",
	RuleTypeAmount:    "Transaction amount rule",
}

func (t RuleType) IsValid() bool {
	_, ok := ruleTypeDescriptions[t]
	return ok
}

func (t RuleType) Description() string {
	return ruleTypeDescriptions[t]
}

// OperationStatus is the state of an OperationLog.
//
//	pending -> processing -> completed | failed | cancelled
type OperationStatus string

const (
	OperationPending    OperationStatus = "pending"
	OperationProcessing OperationStatus = "processing"
	OperationCompleted  OperationStatus = "completed"
	OperationFailed     OperationStatus = "failed"
	OperationCancelled  OperationStatus = "cancelled"
)

var operationStatusDescriptions = map[OperationStatus]string{
	OperationPending:    "Pending",
	OperationProcessing: "Processing",
	OperationCompleted:  "Completed",
	OperationFailed:     "Failed",
	OperationCancelled:  "Cancelled",
}

func (s OperationStatus) IsValid() bool {
	_, ok := operationStatusDescriptions[s]
	return ok
}

func (s OperationStatus) Description() string {
	return operationStatusDescriptions[s]
}

func (s OperationStatus) IsTerminal() bool {
	return s == OperationCompleted || s == OperationFailed || s == OperationCancelled
}

// VerificationType states whether an attempt was demanded by policy.
type VerificationType string

const (
	VerificationRequired VerificationType = "required"
	VerificationOptional VerificationType = "optional"
	VerificationForced   VerificationType = "forced"
)

var verificationTypeDescriptions = map[VerificationType]string{
	VerificationRequired: "Required verification",
	VerificationOptional: "Optional verification",
	VerificationForced:   "Forced verification",
}

func (t VerificationType) IsValid() bool {
	_, ok := verificationTypeDescriptions[t]
	return ok
}

func (t VerificationType) Description() string {
	return verificationTypeDescriptions[t]
}

// IsMandatory reports whether the user may not skip this verification.
func (t VerificationType) IsMandatory() bool {
	return t == VerificationRequired || t == VerificationForced
}

// VerificationResult is the outcome of one attempt.
type VerificationResult string

const (
	ResultSuccess VerificationResult = "success"
	ResultFailed  VerificationResult = "failed"
	ResultSkipped VerificationResult = "skipped"
	ResultTimeout VerificationResult = "timeout"
)

var verificationResultDescriptions = map[VerificationResult]string{
	ResultSuccess: "Verification succeeded",
	ResultFailed:  "Verification failed",
	ResultSkipped: "Verification skipped",
	ResultTimeout: "Verification timed out",
}

func (r VerificationResult) IsValid() bool {
	_, ok := verificationResultDescriptions[r]
	return ok
}

func (r VerificationResult) Description() string {
	return verificationResultDescriptions[r]
}
