package validation

import (
	"fmt"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID       = fmt.Errorf("invalid UUID format")
	ErrInvalidSchemeCode = fmt.Errorf("invalid scheme code")
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}
