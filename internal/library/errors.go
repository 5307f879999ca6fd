package library

import "fmt"

// ValidationCode categorizes command rejections.
type ValidationCode string

const (
	// ErrCodeDuplicateID indicates the id is already taken.
	ErrCodeDuplicateID ValidationCode = "DUPLICATE_ID"

	// ErrCodeNotFound indicates the referenced entity does not exist.
	ErrCodeNotFound ValidationCode = "NOT_FOUND"

	// ErrCodeEmptyField indicates a required field was empty.
	ErrCodeEmptyField ValidationCode = "EMPTY_FIELD"

	// ErrCodeBadIndex indicates an index outside the entity's range.
	ErrCodeBadIndex ValidationCode = "BAD_INDEX"

	// ErrCodeWrongCategory indicates a layer mismatch, e.g. an
	// assign_sequence action inside a micro ruleset.
	ErrCodeWrongCategory ValidationCode = "WRONG_CATEGORY"

	// ErrCodeUnknownKind indicates a condition, action, or step kind
	// outside the closed vocabulary.
	ErrCodeUnknownKind ValidationCode = "UNKNOWN_KIND"
)

// ValidationError rejects a CRUD command that would produce an invalid
// entity. The command is rejected atomically: prior state is unchanged
// and the caller receives this as a failure result, never a panic.
type ValidationError struct {
	Code    ValidationCode
	Entity  string // entity id the command addressed, when known
	Message string
}

func (e *ValidationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func validationErr(code ValidationCode, entity, format string, args ...any) error {
	return &ValidationError{Code: code, Entity: entity, Message: fmt.Sprintf(format, args...)}
}
