package config

import (
	"reflect"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// Validator is an optional interface for configuration structs with
// cross-field or bounds validation. If the struct passed to
// [Loader.Load] implements Validator, its Validate method runs after
// the tag-based required check succeeds.
//
// Validate should return the first failure, or nil. Errors that are
// already [*herr.Error] pass through unchanged; anything else is
// wrapped with [herr.CodeValidation].
//
// Example:
//
//	type TokenConfig struct {
//	    MaxLifetime time.Duration `env:"MAX_LIFETIME" envDefault:"1h"`
//	}
//
//	func (c *TokenConfig) Validate() error {
//	    if c.MaxLifetime < time.Minute || c.MaxLifetime > 24*time.Hour {
//	        return herr.Newf(herr.CodeValidationRange,
//	            "config: max lifetime %s outside [1m, 24h]", c.MaxLifetime)
//	    }
//	    return nil
//	}
type Validator interface {
	Validate() error
}

// validate runs tag-based required validation, then the Validator
// interface if implemented. cfg is the original interface value (for
// the type assertion); rv is the dereferenced struct value.
func validate(cfg any, rv reflect.Value) error {
	if err := validateRequired(rv, ""); err != nil {
		return err
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			if _, isPlatformErr := herr.AsError(err); isPlatformErr {
				return err
			}
			return herr.Wrap(err, herr.CodeValidation,
				"config: custom validation failed")
		}
	}

	return nil
}

// validateRequired recursively checks that fields tagged
// `required:"true"` hold non-zero values. path tracks the dotted field
// path for error messages (e.g., "Auth.IssuerURL").
func validateRequired(rv reflect.Value, path string) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		fieldPath := sf.Name
		if path != "" {
			fieldPath = path + "." + sf.Name
		}

		if field.Kind() == reflect.Struct {
			if err := validateRequired(field, fieldPath); err != nil {
				return err
			}
			continue
		}

		if sf.Tag.Get("required") != "true" {
			continue
		}

		if field.IsZero() {
			return herr.Newf(herr.CodeValidationRequired,
				"config: required field %q is empty", fieldPath)
		}
	}

	return nil
}
