package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"contractpulse/internal/compliance"
	apierrors "contractpulse/internal/errors"
	"contractpulse/pkg/contracts/domain"
)

// Validator validates decoded request payloads using struct tags
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator that reports JSON field names
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("filename", isValidFilename)
	_ = v.RegisterValidation("mode", isValidMode)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validator")),
	}
}

// Struct validates v and returns an APIError listing every failing field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}
	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// Slice validates every element of a slice of structs. Field names are
// prefixed with the element index.
func (v *Validator) Slice(items interface{}) error {
	rv := reflect.ValueOf(items)
	if rv.Kind() != reflect.Slice {
		return v.Struct(items)
	}
	var out []apierrors.ValidationError
	for i := 0; i < rv.Len(); i++ {
		err := v.validate.Struct(rv.Index(i).Interface())
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apierrors.InvalidRequestWithError(err)
		}
		for _, fe := range fieldErrs {
			out = append(out, apierrors.ValidationError{
				Field:   fmt.Sprintf("[%d].%s", i, fe.Field()),
				Message: formatValidationError(fe),
			})
		}
	}
	if len(out) > 0 {
		return apierrors.NewValidationErrors(out)
	}
	return nil
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "mode":
		return fmt.Sprintf("%s must be BONUS or GIF", field)
	case "filename":
		return fmt.Sprintf("%s must be a valid filename", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isValidFilename(fl validator.FieldLevel) bool {
	filename := fl.Field().String()
	if filename == "" {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return false
	}
	return len(filename) <= 255
}

func isValidMode(fl validator.FieldLevel) bool {
	_, err := domain.ParseComplianceMode(fl.Field().String())
	return err == nil
}

// QueryParamValidator validates query parameters
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt validates an integer query parameter
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max, defaultValue int) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a valid integer", param)))
		return 0, false
	}
	if intValue < min || intValue > max {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max)))
		return 0, false
	}
	return intValue, true
}

// ValidateMode reads the compliance mode parameter, defaulting when absent
func (v *QueryParamValidator) ValidateMode(w http.ResponseWriter, r *http.Request, param string, defaultMode domain.ComplianceMode) (domain.ComplianceMode, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultMode, true
	}
	mode, err := domain.ParseComplianceMode(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s, %s", param, domain.ModeBonus, domain.ModeGIF)))
		return "", false
	}
	return mode, true
}

// ValidateDate reads a DD/MM/YYYY or YYYY-MM-DD date parameter.
// The zero time is returned when the parameter is absent.
func (v *QueryParamValidator) ValidateDate(w http.ResponseWriter, r *http.Request, param string) (time.Time, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	if value == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{compliance.DateLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a date in DD/MM/YYYY or YYYY-MM-DD form", param)))
	return time.Time{}, false
}
