package model

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding space and applies NFC so that names typed
// with different Arabic keyboard layouts compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// JoinErrors folds validation errors into one error, or nil.
func JoinErrors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	list := make([]error, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	return errors.Join(list...)
}
