package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("tax_id", validateTaxID)
	validate.RegisterValidation("referral_channel", validateReferralChannel)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationErrors flattens validator errors into a field->message map for
// the error response envelope.
func ValidationErrors(err error) map[string]string {
	details := make(map[string]string)

	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = "failed on " + fe.Tag()
		}
		return details
	}

	details["request"] = err.Error()
	return details
}

var taxIDRegex = regexp.MustCompile(`^[0-9./\-]{8,18}$`)

// Company tax ids arrive with or without punctuation; only the shape is
// checked here, registry lookups are out of scope.
func validateTaxID(fl validator.FieldLevel) bool {
	return taxIDRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateReferralChannel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "technical_report", "email", "chat":
		return true
	}
	return false
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || len(parts[0]) <= 2 {
		return email
	}

	local := parts[0]
	masked := string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1])
	return masked + "@" + parts[1]
}
