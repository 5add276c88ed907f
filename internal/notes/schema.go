package notes

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"notehub/internal/errs"
)

// FieldErrors maps a JSON field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return strings.Join(parts, "; ")
}

// SchemaValidator validates create requests from their struct tags and
// reports every failing field at once.
type SchemaValidator struct {
	v *validator.Validate
}

func NewSchemaValidator() *SchemaValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag name or nil func.
	_ = v.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return Tag(fl.Field().String()).Valid()
	})
	return &SchemaValidator{v: v}
}

// Validate checks a normalized input. The returned error wraps FieldErrors
// and is coded InvalidArgument.
func (s *SchemaValidator) Validate(in CreateNoteInput) error {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.Internal, "validation failed", err)
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return errs.Wrap(errs.InvalidArgument, "validation failed", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		if fe.Tag() == "required" {
			return "Title is required"
		}
		return MsgTitleLength
	case "content":
		return MsgContentLength
	case "tag":
		if fe.Tag() == "required" {
			return "Tag is required"
		}
		return MsgInvalidTag
	}
	return fe.Error()
}
