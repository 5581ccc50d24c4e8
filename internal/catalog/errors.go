package catalog

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the stores and the edit dispatcher
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrPermission   = errors.New("permission denied")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTransaction  = errors.New("transaction rolled back")
	ErrConnectivity = errors.New("store unavailable")
)

// Validation errors
var (
	ErrInvalidEditKind = fmt.Errorf("%w: invalid edit kind", ErrValidation)
	ErrNullValue       = fmt.Errorf("%w: value is required", ErrValidation)
	ErrTypeMismatch    = fmt.Errorf("%w: value has the wrong type for this edit kind", ErrValidation)
	ErrInvalidValue    = fmt.Errorf("%w: invalid value", ErrValidation)
	ErrInvalidTitle    = fmt.Errorf("%w: title is required", ErrValidation)
	ErrNoAuthors       = fmt.Errorf("%w: at least one author is required", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid series status", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: name is required", ErrValidation)
)

// Not found errors
var (
	ErrBookNotFound    = fmt.Errorf("book %w", ErrNotFound)
	ErrAuthorNotFound  = fmt.Errorf("author %w", ErrNotFound)
	ErrSeriesNotFound  = fmt.Errorf("series %w", ErrNotFound)
	ErrGenreNotFound   = fmt.Errorf("genre %w", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrNotAttached     = fmt.Errorf("author is not attached to the book: %w", ErrNotFound)
)

// Conflict errors
var (
	ErrAlreadyAttached = fmt.Errorf("%w: author is already attached to the book", ErrConflict)
	ErrLastAuthor      = fmt.Errorf("%w: a book must keep at least one author", ErrConflict)
	ErrSeriesNotEmpty  = fmt.Errorf("%w: series still has books", ErrConflict)
	ErrCounterAtZero   = fmt.Errorf("%w: series book count is already zero", ErrConflict)
	ErrDuplicate       = fmt.Errorf("%w: already exists", ErrConflict)
	ErrStillReferenced = fmt.Errorf("%w: still referenced", ErrConflict)
	ErrProtectedOwner  = fmt.Errorf("%w: the administrative owner account cannot be removed", ErrConflict)
)

// Kind is one of the error kinds above.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindConflict
	KindTransaction
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransaction:
		return "transaction"
	case KindConnectivity:
		return "connectivity"
	}
	return "unknown"
}

// KindOf classifies err. Errors that carry no kind are treated as
// connectivity failures since they come from the driver.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransaction):
		return KindTransaction
	default:
		return KindConnectivity
	}
}

// HasKind reports whether err already carries one of the error kinds.
func HasKind(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTransaction) ||
		errors.Is(err, ErrConnectivity)
}
