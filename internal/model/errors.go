package model

import (
	"errors"
	"fmt"
)

// ValidationKind discriminates fatal document-level rejections.
type ValidationKind string

const (
	NotAWRLike          ValidationKind = "not_awr_like"
	UnsafeContent       ValidationKind = "unsafe_content"
	TooLarge            ValidationKind = "too_large"
	UndecodableEncoding ValidationKind = "undecodable_encoding"
)

// ValidationError rejects a whole document before parsing begins.
// It is the only fatal error class: everything past validation degrades
// into SectionError or FieldWarning instead.
type ValidationError struct {
	Kind   ValidationKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError of the
// given kind.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}
