package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validatable is implemented by form types that are checked before they are sent to the API
type Validatable interface {
	Validate() error
}

// ValidationError is a failed form rule
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors is returned by Validate, one entry per failed field in declaration order
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})

		mustRegister(v, "commodity", func(fl validator.FieldLevel) bool {
			return slices.Contains(Commodities(), Commodity(fl.Field().String()))
		})

		mustRegister(v, "required_if_large_plot", func(fl validator.FieldLevel) bool {
			parent := fl.Parent()
			if parent.Kind() == reflect.Ptr {
				parent = parent.Elem()
			}
			area := parent.FieldByName("AreaHectares")
			if !area.IsValid() || area.Float() <= PolygonRequiredHectares {
				return true
			}
			return fl.Field().Len() > 0
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn, true); err != nil {
		panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
	}
}

// Validate checks a form against its validate struct tags
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%s must be an ISO 3166-1 alpha-2 country code", field)
	case "commodity":
		return fmt.Sprintf("%s must be one of the EUDR commodities", field)
	case "slug":
		return fmt.Sprintf("%s must contain lower case letters, digits and single dashes", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "latitude", "longitude":
		return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "required_if_large_plot":
		return fmt.Sprintf("%s is required for plots larger than %.0f hectares", field, PolygonRequiredHectares)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func (f NewTenant) Validate() error                { return Validate(f) }
func (f UserInvite) Validate() error               { return Validate(f) }
func (f NewSupplier) Validate() error              { return Validate(f) }
func (f NewProduct) Validate() error               { return Validate(f) }
func (f NewPlot) Validate() error                  { return Validate(f) }
func (f NewRiskAssessment) Validate() error        { return Validate(f) }
func (f NewDueDiligenceStatement) Validate() error { return Validate(f) }
func (f NewSAQRequest) Validate() error            { return Validate(f) }
func (f SAQSubmission) Validate() error            { return Validate(f) }
