package httpx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Language tags as used in archive names: "acr", "cak-x-central", "tuo-CO".
var langTagPattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{1,8})*$`)

func init() {
	validate = validator.New()

	validate.RegisterValidation("langtag", validateLangTag)
}

func validateLangTag(fl validator.FieldLevel) bool {
	return langTagPattern.MatchString(fl.Field().String())
}

// ValidateStruct checks s against its validate tags and returns one detail per failing field.
func ValidateStruct(s any) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	var details []ErrorDetail
	for _, err := range verrs {
		field := err.Field()
		param := err.Param()

		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, param)
		case "gte", "lte":
			message = fmt.Sprintf("%s is out of range (%s %s)", field, err.Tag(), param)
		case "langtag":
			message = fmt.Sprintf("%s must be a language tag such as \"acr\" or \"cak-x-central\"", field)
		case "dive":
			message = fmt.Sprintf("%s contains an invalid item", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		details = append(details, ErrorDetail{
			Field:   strings.ToLower(field[:1]) + field[1:],
			Message: message,
		})
	}

	return details
}
