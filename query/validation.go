package query

import (
	"errors"
	"fmt"
)

// Validation constants to prevent DoS and resource exhaustion
const (
	// MaxQueryLength is the maximum allowed query string length (64KB)
	MaxQueryLength = 64 * 1024

	// MaxConditions is the maximum number of AND-joined conditions in a query
	MaxConditions = 256
)

var (
	// ErrQueryTooLong is returned when query exceeds MaxQueryLength
	ErrQueryTooLong = errors.New("query too long")

	// ErrTooManyConditions is returned when a query has more than MaxConditions conditions
	ErrTooManyConditions = errors.New("too many conditions in query")
)

// ValidateQuery performs security validation on query input
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrQueryTooLong, len(query), MaxQueryLength)
	}
	return nil
}

// ValidateConditions validates the condition count
func ValidateConditions(conditions []string) error {
	if len(conditions) > MaxConditions {
		return fmt.Errorf("%w: %d conditions (max %d)", ErrTooManyConditions, len(conditions), MaxConditions)
	}
	return nil
}
