package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pawbook/visibility/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Privacy scope validation
	validate.RegisterValidation("privacy_scope", func(fl validator.FieldLevel) bool {
		_, err := model.ParseScope(fl.Field().String())
		return err == nil
	})

	// Privacy rule validation
	validate.RegisterValidation("privacy_rule", func(fl validator.FieldLevel) bool {
		_, err := model.ParseRule(fl.Field().String())
		return err == nil
	})

	// Exception decision validation
	validate.RegisterValidation("exception_decision", func(fl validator.FieldLevel) bool {
		_, err := model.ParseExceptionDecision(fl.Field().String())
		return err == nil
	})
}

// Struct validates a request struct and returns a map of field errors, or
// nil when the struct is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			fields[field] = "This field is required"
		case "privacy_scope":
			fields[field] = "Must be one of: profile, posts, pets, activity"
		case "privacy_rule":
			fields[field] = "Must be one of: public, followers, friends, private, custom"
		case "exception_decision":
			fields[field] = "Must be one of: allow, deny"
		case "gt":
			fields[field] = "Must be greater than " + err.Param()
		case "min":
			fields[field] = "Must contain at least " + err.Param()
		case "max":
			fields[field] = "Must contain at most " + err.Param()
		default:
			fields[field] = "Invalid value"
		}
	}
	return fields
}
