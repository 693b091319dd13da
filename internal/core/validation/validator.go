// Package validation runs struct-tag validation and maps failures to AppErrors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"posledger/internal/core/apperror"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Engine returns the shared validator. Field names are reported using
// their json tag so errors match the API payloads.
func Engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return instance
}

// Struct validates v. A missing required field becomes MISSING_REQUIRED_FIELD,
// any other rule failure VALIDATION_ERROR with every failing field listed.
func Struct(v any) error {
	err := Engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewValidation(err.Error())
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return apperror.NewMissingField(fe.Field())
		}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apperror.NewValidation("invalid fields").WithDetail("fields", fields)
}
