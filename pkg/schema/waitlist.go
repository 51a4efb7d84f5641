// Package schema holds the waitlist submission rules shared by the intake form
// and the submission endpoint, so both sides accept and reject the same input.
package schema

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformBoth    = "both"

	DefaultPlatform = PlatformBoth
)

const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldCity              = "city"
	FieldUniversityCompany = "universityCompany"
	FieldPlatform          = "platform"
	FieldHoneypot          = "honeypot"
)

// Platforms lists the accepted platform values in display order.
var Platforms = []string{PlatformIOS, PlatformAndroid, PlatformBoth}

// WaitlistSubmission is the JSON body posted by the intake form.
type WaitlistSubmission struct {
	Name              string `json:"name" validate:"required,min=2"`
	Email             string `json:"email" validate:"required,email"`
	City              string `json:"city" validate:"required,min=2"`
	UniversityCompany string `json:"universityCompany,omitempty"`
	Platform          string `json:"platform" validate:"required,oneof=ios android both"`
	Honeypot          string `json:"honeypot" validate:"max=0"`
}

var fieldMessages = map[string]string{
	FieldName:     "Name must be at least 2 characters",
	FieldEmail:    "Please enter a valid email address",
	FieldCity:     "City must be at least 2 characters",
	FieldPlatform: "Please choose iOS, Android or both",
	FieldHoneypot: "Invalid submission",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	fieldRules   map[string]string
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)

		fieldRules = make(map[string]string)
		t := reflect.TypeOf(WaitlistSubmission{})
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if rule := f.Tag.Get("validate"); rule != "" {
				fieldRules[jsonName(f)] = rule
			}
		}
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate checks every rule of the submission. A non-nil error is a
// validator.ValidationErrors unless the submission itself is unusable.
func Validate(sub *WaitlistSubmission) error {
	if sub == nil {
		return errors.New("schema: nil submission")
	}
	return instance().Struct(sub)
}

// ValidateField checks one field the way Validate would. The honeypot and
// fields without rules always pass.
func ValidateField(field, value string) error {
	v := instance()
	if field == FieldHoneypot {
		return nil
	}
	rule, ok := fieldRules[field]
	if !ok {
		return nil
	}
	return v.Var(value, rule)
}

// FieldMessages maps each failing JSON field to a message fit for an end user.
func FieldMessages(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}

	for _, fe := range verrs {
		field := fe.Field()
		if msg, ok := fieldMessages[field]; ok {
			out[field] = msg
			continue
		}
		out[field] = "Invalid value"
	}
	return out
}

// MessageFor returns the user-facing message for a single field failure.
func MessageFor(field string) string {
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	return "Invalid value"
}

// NormalizeEmail trims and lowercases an address before it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
