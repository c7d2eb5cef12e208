package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"car-rental-catalog/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// inputValidator checks write payloads against their struct tags and turns
// failures into one ValidationError that names every offending field.
type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &inputValidator{v: v}
}

// create validates a full payload: every required field must be present.
func (iv *inputValidator) create(in any) error {
	return toValidationError(iv.v.Struct(in))
}

// update validates only the fields present in a partial payload, so
// required does not apply to the ones left out.
func (iv *inputValidator) update(in any) error {
	fields := presentFields(in)
	if len(fields) == 0 {
		return nil
	}
	return toValidationError(iv.v.StructPartial(in, fields...))
}

// presentFields lists the Go names of the non-nil pointer fields of in.
func presentFields(in any) []string {
	rv := reflect.Indirect(reflect.ValueOf(in))
	rt := rv.Type()
	var out []string
	for i := 0; i < rt.NumField(); i++ {
		if f := rv.Field(i); f.Kind() == reflect.Pointer && !f.IsNil() {
			out = append(out, rt.Field(i).Name)
		}
	}
	return out
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}

	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			missing = append(missing, fe.Field())
		case "gt":
			invalid = append(invalid, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "gte":
			invalid = append(invalid, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "oneof":
			invalid = append(invalid, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			invalid = append(invalid, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}

	var parts []string
	switch len(missing) {
	case 0:
	case 1:
		parts = append(parts, "Missing required field: "+missing[0])
	default:
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)

	return apperr.Validation(strings.Join(parts, "; ")).WithDetails(map[string]any{
		"missing": missing,
		"invalid": invalid,
	})
}
