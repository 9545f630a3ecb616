package errors

import "net/http"

// Error code constants. Errors contain a code + message only; codes are
// stable identifiers, messages are for humans and MAY change.

// Validation error codes.
const (
	CodeValidationFailed = "validation_error"
	CodeInvalidID         = "invalid_id"
)

// Auth (authentication) error codes (spec.md §7 AuthError kinds).
const (
	CodeMissingToken = "missing_token"
	CodeInvalidToken = "invalid_token"
	CodeRevokedToken = "revoked_token"
	CodeExpiredToken = "expired_token"
)

// Authorization error codes.
const (
	CodeNotOwner          = "not_owner"
	CodeNotMember         = "not_member"
	CodeResourceNotFound  = "resource_not_found"
	CodePermissionDenied  = "permission_denied"
)

// Not-found error codes, one per entity.
const (
	CodeReceiverNotFound   = "receiver_not_found"
	CodeEventNotFound      = "event_not_found"
	CodeGroupNotFound      = "group_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeMembershipNotFound = "membership_not_found"
)

// Conflict error codes.
const (
	CodeVersionMismatch    = "version_conflict"
	CodeDuplicateMember    = "duplicate_member"
	CodeDuplicateReceiver  = "duplicate_receiver_id"
)

// Rate limit, storage, publish and policy-engine error codes.
const (
	CodeRateLimited    = "rate_limited"
	CodeStorageError   = "storage_error"
	CodePublishError   = "publish_error"
	CodePolicyEngine   = "policy_engine_error"
)

// NotFoundf builds a NotFound AppError for the given entity code.
func NotFoundf(code, entity string) *AppError {
	return &AppError{Code: code, Message: entity + " not found", HTTPStatus: http.StatusNotFound}
}

// ValidationErrorf builds a ValidationError carrying an offending field.
func ValidationErrorf(field, message string) *AppError {
	return &AppError{
		Code:       CodeValidationFailed,
		Message:    message,
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ConflictErrorf builds a Conflict AppError.
func ConflictErrorf(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusConflict}
}

// AuthErrorf builds an AuthError (401) AppError.
func AuthErrorf(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// AuthorizationErrorf builds an AuthorizationError (403) AppError.
func AuthorizationErrorf(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusForbidden}
}

// RateLimitedf builds a RateLimited (429) AppError.
func RateLimitedf(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "too many requests",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// StorageErrorf builds an opaque 500 StorageError that never leaks DB detail.
func StorageErrorf(err error) *AppError {
	return &AppError{
		Code:       CodeStorageError,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
