package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperator is returned when a requirement document carries an
	// operator outside the supported set.
	ErrUnknownOperator = errors.New("unknown condition operator")
	// ErrUnknownValueKind is returned when a condition value has no valid tag.
	ErrUnknownValueKind = errors.New("unknown condition value kind")
)

// ValidationError reports malformed engine input, such as a submission whose
// answers carry points but no positive maximum.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
