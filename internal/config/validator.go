package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	conformerrors "github.com/conformkit/conform/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	resourceIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("resource_id", func(fl validator.FieldLevel) bool {
			return resourceIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns the shared validator instance for use outside the
// config package, e.g. to validate decoded resource structs.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// ValidateConfig performs schema and cross-entry validation on a document.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return conformerrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Resources))
	for i, entry := range cfg.Resources {
		if _, exists := seen[entry.ID]; exists {
			return conformerrors.NewValidationError(
				fieldForEntry(i, "id"),
				fmt.Sprintf("duplicate resource id %q", entry.ID),
				nil,
			)
		}
		seen[entry.ID] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		field := strings.TrimPrefix(first.Namespace(), "Config.")
		return conformerrors.NewValidationError(
			field,
			fmt.Sprintf("failed %q validation", first.Tag()),
			err,
		)
	}

	return conformerrors.NewValidationError("config", err.Error(), err)
}

func fieldForEntry(index int, field string) string {
	return fmt.Sprintf("resources[%d].%s", index, field)
}
