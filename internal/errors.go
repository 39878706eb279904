package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInvariant    ErrorType = "INVARIANT_VIOLATION"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidInvite    ErrorCode = "INVALID_INVITE_CODE"

	ErrCodeOrganizationNotFound  ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeTransactionNotFound   ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeMemberNotFound        ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeInviteNotFound        ErrorCode = "INVITE_NOT_FOUND"
	ErrCodeCategoryNotFound      ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeReimbursementNotFound ErrorCode = "REIMBURSEMENT_NOT_FOUND"

	ErrCodeNotAMember          ErrorCode = "NOT_A_MEMBER"
	ErrCodeInsufficientRole    ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeOwnerOnly           ErrorCode = "OWNER_ONLY"
	ErrCodeSelfTargetForbidden ErrorCode = "SELF_TARGET_FORBIDDEN"
	ErrCodeOwnerImmutable      ErrorCode = "OWNER_ROLE_IMMUTABLE"

	ErrCodeInitialTypeImmutable ErrorCode = "INITIAL_TYPE_IMMUTABLE"
	ErrCodeBaselineManaged      ErrorCode = "BASELINE_MANAGED"
	ErrCodeTargetNotMember      ErrorCode = "TARGET_NOT_MEMBER"
	ErrCodeNewOwnerNotMember    ErrorCode = "NEW_OWNER_NOT_MEMBER"
	ErrCodeMemberInactive       ErrorCode = "MEMBER_INACTIVE"
	ErrCodeMemberAlreadyActive  ErrorCode = "MEMBER_ALREADY_ACTIVE"

	ErrCodeInviteRevoked   ErrorCode = "INVITE_REVOKED"
	ErrCodeInviteExpired   ErrorCode = "INVITE_EXPIRED"
	ErrCodeInviteExhausted ErrorCode = "INVITE_EXHAUSTED"
	ErrCodeAlreadyMember   ErrorCode = "ALREADY_MEMBER"

	ErrCodeAllocationExceedsCash    ErrorCode = "ALLOCATION_EXCEEDS_CASH"
	ErrCodeRefundExceedsOutstanding ErrorCode = "REFUND_EXCEEDS_OUTSTANDING"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInvariantError reports a business invariant violation, e.g. a baseline
// allocation that would exceed cash on hand.
func NewInvariantError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvariant,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
