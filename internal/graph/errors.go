package graph

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every typed error that crosses a package boundary.
const (
	ErrCodeAuthFailed       = "PLANNER_AUTH_FAILED"
	ErrCodeConnectionFailed = "PLANNER_CONNECTION_FAILED"
	ErrCodeNotFound         = "PLANNER_NOT_FOUND"
	ErrCodeConflict         = "PLANNER_CONFLICT"
	ErrCodeHTTP             = "PLANNER_HTTP_ERROR"
	ErrCodeBadInput         = "PLANNER_BAD_INPUT"
)

// NewAuthError reports that no usable credential could be obtained.
func NewAuthError(message string, cause error) error {
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryAuth, message).
			WithTextCode(ErrCodeAuthFailed)
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithTextCode(ErrCodeAuthFailed)
}

// NewConnectionError reports that a remote channel stayed unreachable
// after the permitted reconnect attempt.
func NewConnectionError(message string, cause error) error {
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
			WithTextCode(ErrCodeConnectionFailed)
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithTextCode(ErrCodeConnectionFailed)
}

// NewNotFoundError reports a failed name or id resolution. The known
// candidates ride along in metadata so callers can surface them.
func NewNotFoundError(message string, available []string) error {
	err := goerrors.New(message, goerrors.CategoryNotFound).
		WithTextCode(ErrCodeNotFound)
	if len(available) > 0 {
		err = err.WithMetadata(map[string]any{"available": available})
	}
	return err
}

// NewConflictError reports a version-token mismatch that persisted after
// the conflict retry budget.
func NewConflictError(message string, cause error) error {
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryConflict, message).
			WithTextCode(ErrCodeConflict)
	}
	return goerrors.New(message, goerrors.CategoryConflict).
		WithTextCode(ErrCodeConflict)
}

// NewHTTPError reports a non-2xx remote response.
func NewHTTPError(message string, status int, body string) error {
	return goerrors.New(message, categoryForStatus(status)).
		WithTextCode(textCodeForStatus(status)).
		WithCode(status).
		WithMetadata(map[string]any{
			"status": status,
			"body":   body,
		})
}

// NewValidationError reports malformed caller input.
func NewValidationError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(ErrCodeBadInput)
}

func categoryForStatus(status int) goerrors.Category {
	switch status {
	case 401, 403:
		return goerrors.CategoryAuth
	case 404:
		return goerrors.CategoryNotFound
	case 409, 412:
		return goerrors.CategoryConflict
	default:
		return goerrors.CategoryExternal
	}
}

func textCodeForStatus(status int) string {
	switch status {
	case 401, 403:
		return ErrCodeAuthFailed
	case 404:
		return ErrCodeNotFound
	case 409, 412:
		return ErrCodeConflict
	default:
		return ErrCodeHTTP
	}
}

// IsConflict reports whether err is a version-conflict failure.
func IsConflict(err error) bool {
	return hasCategory(err, goerrors.CategoryConflict)
}

// IsNotFound reports whether err is a resolution or 404 failure.
func IsNotFound(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	return hasCategory(err, goerrors.CategoryAuth)
}

// IsBadInput reports whether err is a caller-input failure.
func IsBadInput(err error) bool {
	return hasCategory(err, goerrors.CategoryBadInput)
}

// IsConnection reports whether err is a channel or network failure, as
// opposed to a remote service response.
func IsConnection(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ErrCodeConnectionFailed
}

func hasCategory(err error, category goerrors.Category) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == category
}

// ErrorStatus returns the HTTP status carried by an HTTPError, or 0.
func ErrorStatus(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return 0
	}
	return richErr.Code
}

// AvailableNames returns the candidate list carried by a NotFoundError.
func AvailableNames(err error) []string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return nil
	}
	names, _ := richErr.Metadata["available"].([]string)
	return names
}
