// Package handler provides HTTP handlers for the dashboard gateway API.
package handler

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/twostepahead/twostepahead/internal/api/models"
)

var validate = newValidator()

// newValidator reports field errors under their query parameter names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// bindQuery fills the string fields of dst tagged `query` from values and
// validates the result. dst must be a pointer to a struct.
func bindQuery(values url.Values, dst any) []models.FieldError {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		name, _, _ := strings.Cut(rt.Field(i).Tag.Get("query"), ",")
		if name == "" || name == "-" || rv.Field(i).Kind() != reflect.String {
			continue
		}
		rv.Field(i).SetString(strings.TrimSpace(values.Get(name)))
	}

	return validationErrors(validate.Struct(dst))
}

func validationErrors(err error) []models.FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "latitude":
		return fe.Field() + " must be a latitude between -90 and 90"
	case "longitude":
		return fe.Field() + " must be a longitude between -180 and 180"
	case "datetime":
		return fmt.Sprintf("%s must use the layout %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// hasMissing reports whether any error is a missing required field.
func hasMissing(errs []models.FieldError) bool {
	for _, fe := range errs {
		if fe.Code == "required" {
			return true
		}
	}
	return false
}
