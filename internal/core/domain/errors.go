package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrCaseNotFound         = errors.New("case not found")
	ErrCourtNotFound        = errors.New("court not found")
	ErrDisplayEntryNotFound = errors.New("display entry not found")
	ErrAlreadyDisplayed     = errors.New("case already displayed")
	ErrUploadNotFound       = errors.New("upload not found")
	ErrStagedFileNotFound   = errors.New("staged file not found")
	ErrStagedFileUnreadable = errors.New("staged file unreadable")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
