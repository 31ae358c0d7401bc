package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
)

var (
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidInput       = models.ErrInvalidInput
	ErrNotFound           = repositories.ErrNotFound
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func invalidFilter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}

// storageError classifies a backend error. Not-found and context errors pass
// through; anything else means the store could not serve the request.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}
