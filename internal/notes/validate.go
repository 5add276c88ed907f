package notes

import (
	"unicode/utf8"

	"notehub/internal/errs"
)

const (
	TitleMinLen   = 3
	TitleMaxLen   = 50
	ContentMaxLen = 500
)

// User-facing validation messages of the native form.
const (
	MsgTitleLength   = "Title must be 3-50 characters long"
	MsgContentLength = "Content must contain no more than 500 characters"
	MsgInvalidTag    = "Invalid tag"
)

// Validate runs the native form checks on a normalized input and returns the
// first failure. Lengths are counted in characters, not bytes.
func Validate(in CreateNoteInput) error {
	if n := utf8.RuneCountInString(in.Title); n < TitleMinLen || n > TitleMaxLen {
		return errs.New(errs.InvalidArgument, MsgTitleLength)
	}
	if utf8.RuneCountInString(in.Content) > ContentMaxLen {
		return errs.New(errs.InvalidArgument, MsgContentLength)
	}
	if !in.Tag.Valid() {
		return errs.New(errs.InvalidArgument, MsgInvalidTag)
	}
	return nil
}
