package schedule

import "errors"

// Sentinel errors for the closed mutation set. Each precondition failure
// wraps one of these so callers can map them to a status code with
// errors.Is while keeping the descriptive message.
var (
	ErrChildExists         = errors.New("child already exists")
	ErrChildNotFound       = errors.New("child not found")
	ErrItemExists          = errors.New("item already exists")
	ErrItemNotFound        = errors.New("item not found")
	ErrLibraryItemExists   = errors.New("library item already exists")
	ErrLibraryItemNotFound = errors.New("library item not found")
	ErrExceptionNotFound   = errors.New("no exception for that date")
	ErrInvalidDay          = errors.New("invalid day name")
	ErrInvalidDate         = errors.New("invalid date, use YYYY-MM-DD")
	ErrUnknownItemIDs      = errors.New("unknown item ids")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChildNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrLibraryItemNotFound) ||
		errors.Is(err, ErrExceptionNotFound)
}

// IsConflict reports whether err is a duplicate-entity sentinel.
func IsConflict(err error) bool {
	return errors.Is(err, ErrChildExists) ||
		errors.Is(err, ErrItemExists) ||
		errors.Is(err, ErrLibraryItemExists)
}

// IsInvalid reports whether err is a malformed-input sentinel.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidDay) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnknownItemIDs)
}
