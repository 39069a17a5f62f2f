package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validator with JSON field names
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with domain-specific rules registered
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Payout method types accepted by the payout flow
	v.RegisterValidation("payout_method_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "bank_transfer", "upi", "paypal":
			return true
		}
		return false
	})

	// Commission policy types accepted on courses
	v.RegisterValidation("commission_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "percent", "fixed":
			return true
		}
		return false
	})

	return &Validator{validate: v}
}

// Validate validates a struct and returns field -> message details, or nil when valid
func (v *Validator) Validate(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_error": err.Error()}
	}

	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = message(fe)
	}
	return details
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is below the allowed minimum: " + fe.Param()
	case "max":
		return "Value is above the allowed maximum: " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "payout_method_type":
		return "Unsupported payout method type"
	case "commission_type":
		return "Commission type must be percent or fixed"
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}
