package helper

import "fmt"

// NewError wraps err with the failed operation context.
// The context should name the operation, e.g. "load chunks sql".
func NewError(context string, err error) error {
	return fmt.Errorf("failed to %s: %w", context, err)
}
