package selector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report parameter names as they appear in config files
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// ParamError lists the invalid parameters of a selector
type ParamError struct {
	Fields []string
	Errs   []string
}

func (e *ParamError) Error() string {
	return "invalid parameters: " + strings.Join(e.Errs, "; ")
}

// DecodeParams fills dst from a parameter bag.
// Defaults come from `default` tags, unknown keys are rejected,
// and the result is checked against `validate` tags.
func DecodeParams(params map[string]interface{}, dst interface{}) error {
	if err := defaults.Set(dst); err != nil {
		return fmt.Errorf("set parameter defaults: %w", err)
	}

	if len(params) > 0 {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode parameters: %w", err)
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode parameters: %w", err)
		}
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			perr := &ParamError{}
			for _, fe := range validationErrors {
				perr.Fields = append(perr.Fields, fe.Field())
				perr.Errs = append(perr.Errs, paramMessage(fe))
			}
			return perr
		}
		return fmt.Errorf("validate parameters: %w", err)
	}

	return nil
}

func paramMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
