package protocol

import (
	"fmt"
	"strings"
	"unicode"
)

// Validator is a type able to validate itself. Validate inspects the type for
// syntactic or semantic issues, and returns a descriptive error if any
// violations are encountered. Validate returns instances of ValidationError,
// which track nested contexts and match ErrInvalidArgument.
type Validator interface {
	Validate() error
}

// ValidationError is an error implementation which captures its validation context.
type ValidationError struct {
	Context []string
	Err     error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if len(ve.Context) != 0 {
		return strings.Join(ve.Context, ".") + ": " + ve.Err.Error()
	}
	return ve.Err.Error()
}

// Is matches ErrInvalidArgument.
func (ve *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// ExtendContext type-checks |err| to a *ValidationError, and if matched extends
// it with |context|. In all cases the value of |err| is returned.
func ExtendContext(err error, format string, args ...interface{}) error {
	if ve, ok := err.(*ValidationError); ok {
		ve.Context = append([]string{fmt.Sprintf(format, args...)}, ve.Context...)
	}
	return err
}

// NewValidationError parallels fmt.Errorf to returns a new ValidationError instance.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// ValidateToken ensures the string is of length [min, max] and consists
// only of runes drawn from the unicode.Letter and unicode.Digit character
// classes, and the symbols of |alpha|.
func ValidateToken(n, alpha string, min, max int) error {
	if l := len(n); l < min || l > max {
		return NewValidationError("invalid length (%d; expected %d <= length <= %d)", l, min, max)
	}
	for _, r := range n {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		} else if !strings.ContainsRune(alpha, r) {
			return NewValidationError("not a valid token (%s)", n)
		}
	}
	return nil
}

const (
	// tableSymbols are the non-alphanumeric runes allowed in a table qualifier.
	tableSymbols = "-_."
	// namespaceSymbols are the non-alphanumeric runes allowed in a namespace.
	namespaceSymbols = "_"
	// familySymbols are the non-alphanumeric runes allowed in a column family.
	familySymbols = "-_."

	maxTableNameLen  = 255
	maxFamilyNameLen = 255
	maxRowKeyLen     = 1<<15 - 1
)
