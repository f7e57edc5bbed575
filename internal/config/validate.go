package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/tuimemo/internal/drill"
	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/speech"
)

var validate = validator.New()

var flagNames = map[string]string{
	"Mode":         "--mode",
	"Repetitions":  "--reps",
	"Lang":         "--lang",
	"Placeholder":  "--placeholder",
	"AdvanceDelay": "advance-delay",
	"ClearDelay":   "clear-delay",
}

// Validate checks merged drill settings and reports the first invalid one
// by its flag or config key name.
func Validate(cfg model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}
		return fieldError(verrs[0], cfg)
	}
	if _, ok := speech.Lookup(cfg.Lang); !ok {
		return fmt.Errorf("--lang: unsupported language %q (see: tuimemo langs)", cfg.Lang)
	}
	return nil
}

func fieldError(fe validator.FieldError, cfg model.Config) error {
	name := flagNames[fe.Field()]
	switch fe.Field() {
	case "Repetitions":
		return fmt.Errorf("%s: %w: %d", name, drill.ErrInvalidRepetitionTarget, cfg.Repetitions)
	case "Mode":
		return fmt.Errorf("%s must be single or multi, got %q", name, cfg.Mode)
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s must not be empty", name)
	case "min":
		return fmt.Errorf("%s must be >= %s", name, fe.Param())
	}
	return fmt.Errorf("%s is invalid (%s)", name, strings.TrimSpace(fe.Tag()))
}
