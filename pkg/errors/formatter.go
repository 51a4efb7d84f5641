package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse is one field's problem, named by its JSON key.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		if fe.Param() == "0" {
			return "Must be empty"
		}
		return fmt.Sprintf("Must not exceed %s characters", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "Invalid value"
	}
}

func jsonName(model reflect.Type, field string) string {
	f, ok := model.FieldByName(field)
	if !ok {
		return field
	}
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" {
		return name
	}
	return field
}

// FormatValidationErrors turns a JSON type error or validator errors into
// per-field messages. model is the struct the request was bound to.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		message := fmt.Sprintf("Invalid type for field %s. Got %s", typeErr.Field, typeErr.Value)
		if typeErr.Type != nil && isPlainKind(typeErr.Type.Kind()) {
			message = fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return []ValidationErrorResponse{{Field: typeErr.Field, Message: message}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	var modelType reflect.Type
	if model != nil {
		modelType = reflect.TypeOf(model)
		if modelType.Kind() == reflect.Ptr {
			modelType = modelType.Elem()
		}
	}

	out := make([]ValidationErrorResponse, len(fieldErrs))
	for i, fe := range fieldErrs {
		field := fe.Field()
		if modelType != nil {
			field = jsonName(modelType, fe.StructField())
		}
		out[i] = ValidationErrorResponse{Field: field, Message: messageFor(fe)}
	}
	return out
}

// JoinValidationErrors renders field errors as "field: message; field: message".
func JoinValidationErrors(errs []ValidationErrorResponse) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// isPlainKind excludes composite kinds whose Go type name would leak into a response.
func isPlainKind(k reflect.Kind) bool {
	switch k {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Interface, reflect.Ptr:
		return false
	}
	return true
}
