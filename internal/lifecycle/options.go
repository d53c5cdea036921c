package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Analysis modes understood by the service.
const (
	ModeFast     = "fast"
	ModeBalanced = "balanced"
	ModeDetailed = "detailed"
)

// Options tune a processing job.
type Options struct {
	ClipCount     int    `json:"clip_count" validate:"min=1,max=10"`
	UseAIAnalysis bool   `json:"use_ai_analysis"`
	AnalysisMode  string `json:"analysis_mode" validate:"oneof=fast balanced detailed"`
}

// DefaultOptions matches the service's own defaults.
func DefaultOptions() Options {
	return Options{
		ClipCount:     5,
		UseAIAnalysis: true,
		AnalysisMode:  ModeBalanced,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns a *ValidationError naming the first offending field.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error(), Err: err}
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "min", "max":
		msg = "must be between 1 and 10"
	case "oneof":
		msg = fmt.Sprintf("must be one of %s", strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		msg = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Message: msg, Err: err}
}
