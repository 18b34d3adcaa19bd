package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// mustRegisterValidators installs the custom rules on gin's validator engine
// and makes field errors report JSON names. Safe to call repeatedly.
func mustRegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("notblank", notBlank); err != nil {
			panic(err)
		}
	})
}

// notBlank fails strings that are empty after trimming whitespace.
func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(f.String()) != ""
}

// bindMessage turns a binding error into a client-facing message. The first
// failing field wins.
func bindMessage(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return fieldMessage(ves[0])
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return fmt.Sprintf("%s has the wrong type", ute.Field)
	}
	return "invalid JSON body"
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch name {
	case "year":
		return "year must be between 1888 and 2030"
	case "score":
		return "score must be between 1 and 5"
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "notblank":
		return name + " must not be blank"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "url":
		return name + " must be a valid URL"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	}
	return name + " is invalid"
}
