package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorDetail mirrors the body rendered by the error handler.
type ErrorDetail struct {
	Code    int    `json:"code" example:"3002"`
	Name    string `json:"name" example:"PROFILE_NOT_FOUND"`
	Message string `json:"message" example:"Face profile not found"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorResponse(code int, name, message, status, description string) response.Response {
	return response.New(ErrorResponse{Error: ErrorDetail{Code: code, Name: name, Message: message}}, status, description)
}

var internalError = errorResponse(1000, "UNKNOWN", "An unexpected error occurred", "500", "Internal Server Error")

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

type ProfileResponse struct {
	ID               string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID           string  `json:"user_id" example:"user-123"`
	QualityScore     float64 `json:"quality_score" example:"0.93"`
	CollectionMethod string  `json:"collection_method" example:"manual"`
	Status           string  `json:"status" example:"active"`
	ExpiresTime      string  `json:"expires_time,omitempty" example:"2026-01-01T00:00:00Z"`
	CreatedAt        string  `json:"created_at" example:"2025-01-01T00:00:00Z"`
}

type RuleResponse struct {
	ID         string                 `json:"id" example:"2f1b6c1e-8a0d-4a57-b3a4-0f3c5b2e9d10"`
	StrategyID string                 `json:"strategy_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RuleType   string                 `json:"rule_type" example:"amount"`
	RuleName   string                 `json:"rule_name" example:"large-transfer"`
	Conditions map[string]interface{} `json:"conditions"`
	Actions    map[string]interface{} `json:"actions"`
	IsEnabled  bool                   `json:"is_enabled" example:"true"`
	Priority   int                    `json:"priority" example:"10"`
}

type StrategyResponse struct {
	ID           string                 `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name         string                 `json:"name" example:"payment-default"`
	BusinessType string                 `json:"business_type" example:"payment"`
	IsEnabled    bool                   `json:"is_enabled" example:"true"`
	Priority     int                    `json:"priority" example:"10"`
	Config       map[string]interface{} `json:"config"`
	Rules        []RuleResponse         `json:"rules"`
}

type StrategyListResponse struct {
	BusinessType string             `json:"business_type" example:"payment"`
	Strategies   []StrategyResponse `json:"strategies"`
}

type DecisionData struct {
	RequireVerification  bool     `json:"require_verification" example:"true"`
	MinConfidence        float64  `json:"min_confidence,omitempty" example:"0.95"`
	MinVerificationCount int      `json:"min_verification_count,omitempty" example:"1"`
	MaxAttempts          int      `json:"max_attempts,omitempty" example:"3"`
	BlockDuration        int      `json:"block_duration,omitempty" example:"600"`
	MatchedRules         []string `json:"matched_rules,omitempty"`
}

type DecisionResponse struct {
	Decision   DecisionData `json:"decision"`
	StrategyID string       `json:"strategy_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Strategy   string       `json:"strategy,omitempty" example:"payment-default"`
}

type OperationResponse struct {
	UserID                string  `json:"user_id" example:"user-123"`
	OperationID           string  `json:"operation_id" example:"order-42"`
	OperationType         string  `json:"operation_type" example:"payment"`
	StrategyID            string  `json:"strategy_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	VerificationRequired  bool    `json:"verification_required" example:"true"`
	VerificationCompleted bool    `json:"verification_completed" example:"false"`
	VerificationCount     int     `json:"verification_count" example:"1"`
	MinVerificationCount  int     `json:"min_verification_count" example:"2"`
	MinConfidence         float64 `json:"min_confidence,omitempty" example:"0.9"`
	MaxAttempts           int     `json:"max_attempts,omitempty" example:"3"`
	Status                string  `json:"status" example:"processing"`
	FailureReason         string  `json:"failure_reason,omitempty" example:"LIMIT_EXCEEDED"`
	StartedTime           string  `json:"started_time" example:"2025-01-01T12:00:00Z"`
	CompletedTime         string  `json:"completed_time,omitempty" example:"2025-01-01T12:01:30Z"`
	VerificationSatisfied bool    `json:"verification_satisfied" example:"false"`
	DurationSeconds       int64   `json:"duration_seconds,omitempty" example:"90"`
}

type BeginOperationResponse struct {
	Operation OperationResponse `json:"operation"`
	Decision  DecisionData      `json:"decision"`
}

type RecordResponse struct {
	ID               string  `json:"id" example:"8d4b2f0a-7c1e-4c33-9a55-1e2f3a4b5c6d"`
	UserID           string  `json:"user_id" example:"user-123"`
	StrategyID       string  `json:"strategy_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	OperationID      string  `json:"operation_id" example:"order-42"`
	VerificationType string  `json:"verification_type" example:"required"`
	Result           string  `json:"result" example:"failed"`
	ConfidenceScore  float64 `json:"confidence_score,omitempty" example:"0.71"`
	ErrorCode        string  `json:"error_code,omitempty" example:"3001"`
	CreatedAt        string  `json:"created_at" example:"2025-01-01T12:00:10Z"`
}

type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
}

type CallbackResponse struct {
	Status          string `json:"status" example:"accepted"`
	OperationID     string `json:"operation_id" example:"order-42"`
	OperationStatus string `json:"operation_status" example:"processing"`
	Code            int    `json:"code,omitempty" example:"3004"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "FaceVerify Policy API",
		Version:     "v1.0.0",
		Description: "Decides when a business operation needs face verification and tracks each operation until it completes, fails or is cancelled",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	operationID := parameter.StrParam("operation_id", parameter.Path, parameter.WithDescription("Caller supplied operation identifier"))
	strategyID := parameter.StrParam("id", parameter.Path, parameter.WithDescription("Strategy UUID"))

	endpoints := []*endpoint.EndPoint{
		// Profiles

		endpoint.New(
			endpoint.POST,
			"/profiles",
			endpoint.WithTags("Profiles"),
			endpoint.WithSummary("Enroll a face profile"),
			endpoint.WithDescription("Stores the provider-encrypted face features of a user. A user has at most one profile."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ProfileResponse{}, "201", "Profile created"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(2006, "FACE_ALREADY_EXISTS", "Face profile already exists for this user", "409", "Conflict"),
				errorResponse(1001, "INVALID_PARAMETER", "quality_score must be between 0 and 1", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/profiles/{user_id}",
			endpoint.WithTags("Profiles"),
			endpoint.WithSummary("Get a user's face profile"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("user_id", parameter.Path, parameter.WithDescription("User identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ProfileResponse{}, "200", "Profile found"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3002, "PROFILE_NOT_FOUND", "Face profile not found", "404", "Not Found"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/profiles/{user_id}/disable",
			endpoint.WithTags("Profiles"),
			endpoint.WithSummary("Disable a user's face profile"),
			endpoint.WithDescription("Operations that require verification are refused for the user until a new profile is enrolled."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("user_id", parameter.Path, parameter.WithDescription("User identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ProfileResponse{}, "200", "Profile disabled"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3002, "PROFILE_NOT_FOUND", "Face profile not found", "404", "Not Found"),
				internalError,
			}),
		),

		// Strategies

		endpoint.New(
			endpoint.POST,
			"/strategies",
			endpoint.WithTags("Strategies"),
			endpoint.WithSummary("Create a verification strategy"),
			endpoint.WithDescription("The enabled strategy with the highest priority governs its business type. Ties go to the oldest strategy."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StrategyResponse{}, "201", "Strategy created"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "STRATEGY_ALREADY_EXISTS", "A strategy with this name already exists", "409", "Conflict"),
				errorResponse(1001, "INVALID_PARAMETER", "business_type is required", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/strategies",
			endpoint.WithTags("Strategies"),
			endpoint.WithSummary("List enabled strategies of a business type"),
			endpoint.WithDescription("Strategies in precedence order. Only the first one is applied."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("business_type", parameter.Query, parameter.WithDescription("Business type, e.g. payment")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StrategyListResponse{}, "200", "Strategies listed"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "INVALID_PARAMETER", "business_type is required", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/strategies/{id}",
			endpoint.WithTags("Strategies"),
			endpoint.WithSummary("Get a strategy with all its rules"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(strategyID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StrategyResponse{}, "200", "Strategy found"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3005, "STRATEGY_NOT_FOUND", "Verification strategy not found", "404", "Not Found"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/strategies/{id}",
			endpoint.WithTags("Strategies"),
			endpoint.WithSummary("Delete a strategy and its rules"),
			endpoint.WithDescription("Refused while verification records reference the strategy."),
			endpoint.WithParams(strategyID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Strategy deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3005, "STRATEGY_NOT_FOUND", "Verification strategy not found", "404", "Not Found"),
				errorResponse(1001, "STRATEGY_IN_USE", "Strategy is referenced by verification records", "409", "Conflict"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/strategies/{id}/rules",
			endpoint.WithTags("Strategies"),
			endpoint.WithSummary("Add a rule to a strategy"),
			endpoint.WithDescription("rule_type is one of time, frequency, risk, amount."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(strategyID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RuleResponse{}, "201", "Rule created"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3005, "STRATEGY_NOT_FOUND", "Verification strategy not found", "404", "Not Found"),
				errorResponse(1001, "INVALID_PARAMETER", "invalid rule_type \"weather\"", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// Decisions and operations

		endpoint.New(
			endpoint.POST,
			"/decisions",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Evaluate the verification policy"),
			endpoint.WithDescription("Resolves the active strategy of business_type and evaluates its rules against context. Nothing is stored."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DecisionResponse{}, "200", "Decision made"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "INVALID_PARAMETER", "business_type is required", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/operations",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Begin an operation"),
			endpoint.WithDescription("Opens an operation configured by the current decision. When verification is required the user needs an active face profile."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BeginOperationResponse{}, "201", "Operation started"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3002, "PROFILE_NOT_FOUND", "Face profile not found", "404", "Not Found"),
				errorResponse(1001, "OPERATION_ALREADY_EXISTS", "Operation already exists", "409", "Conflict"),
				errorResponse(3003, "PROFILE_EXPIRED", "Face profile expired or disabled", "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/operations/{operation_id}",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Get an operation"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OperationResponse{}, "200", "Operation found"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "OPERATION_NOT_FOUND", "Operation not found", "404", "Not Found"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/operations/{operation_id}/records",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("List the verification records of an operation"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecordListResponse{}, "200", "Records listed"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "OPERATION_NOT_FOUND", "Operation not found", "404", "Not Found"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/operations/{operation_id}/attempts",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Record a verification attempt"),
			endpoint.WithDescription("A success below the operation's min_confidence counts as failed (3001). Using the last allowed attempt, or reaching a frequency rule's max_attempts, without success fails the operation. An attempt_id that was already counted is ignored and the current operation is returned. provider_code (numeric) or provider_error_code (AWS-style) annotate the record with a 4xxx error."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OperationResponse{}, "200", "Attempt recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3006, "VERIFICATION_TIMEOUT", "Verification timed out", "408", "Request Timeout"),
				errorResponse(1001, "INVALID_TRANSITION", "Operation cannot move to the requested state", "409", "Conflict"),
				errorResponse(1003, "CONCURRENT_UPDATE", "Operation was modified concurrently, retry the request", "409", "Conflict"),
				errorResponse(3004, "LIMIT_EXCEEDED", "Verification attempt limit exceeded", "429", "Too Many Requests"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/operations/{operation_id}/complete",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Complete an operation"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OperationResponse{}, "200", "Operation completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(3007, "VERIFICATION_REQUIRED", "Operation requires verification that has not been satisfied", "403", "Forbidden"),
				errorResponse(1001, "INVALID_TRANSITION", "Operation cannot move to the requested state", "409", "Conflict"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/operations/{operation_id}/fail",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Fail an operation"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OperationResponse{}, "200", "Operation failed"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "INVALID_TRANSITION", "Operation cannot move to the requested state", "409", "Conflict"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/operations/{operation_id}/cancel",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Cancel an operation"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(operationID),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OperationResponse{}, "200", "Operation cancelled"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "INVALID_TRANSITION", "Operation cannot move to the requested state", "409", "Conflict"),
				internalError,
			}),
		),

		// Callbacks

		endpoint.New(
			endpoint.POST,
			"/callbacks/verification",
			endpoint.WithTags("Callbacks"),
			endpoint.WithSummary("Receive a provider verification result"),
			endpoint.WithDescription("X-Timestamp carries unix seconds. X-Signature carries the hex HMAC-SHA256 of \"<X-Timestamp>.<body>\" under the shared callback secret. data.attempt_id makes redelivery safe: a result already counted is acknowledged without counting it again."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CallbackResponse{}, "200", "Callback accepted"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse(1001, "INVALID_SIGNATURE", "Callback signature is missing or invalid", "401", "Unauthorized"),
				errorResponse(1001, "OPERATION_NOT_FOUND", "Operation not found", "404", "Not Found"),
				internalError,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
