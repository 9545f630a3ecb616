package handlers

import (
	"errors"

	"github.com/xbcsmith/xzepr/internal/domain"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// mapDomainError translates a domain-layer error into the AppError the
// response envelope needs (spec.md §7 propagation policy). notFoundCode is
// the entity-specific code to use when err is domain.ErrNotFound.
func mapDomainError(err error, notFoundCode, entity string) *apperrors.AppError {
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return apperrors.ValidationErrorf(valErr.Field, valErr.Message)
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return apperrors.ConflictErrorf(apperrors.CodeVersionMismatch, conflictErr.Reason)
	}

	if errors.Is(err, domain.ErrNotFound) {
		return apperrors.NotFoundf(notFoundCode, entity)
	}

	return apperrors.StorageErrorf(err)
}

// mapMembershipError is mapDomainError specialized for group membership
// operations, where a *domain.ConflictError means "already a member" rather
// than a resource_version mismatch.
func mapMembershipError(err error, notFoundCode, entity string) *apperrors.AppError {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return apperrors.ConflictErrorf(apperrors.CodeDuplicateMember, conflictErr.Reason)
	}

	return mapDomainError(err, notFoundCode, entity)
}
