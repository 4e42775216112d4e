package util

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/ident"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("isodate", isoDate)
	validate.RegisterValidation("entityid", entityID)
	validate.RegisterCustomTypeFunc(nullIntValuer, null.Int{})
	validate.RegisterCustomTypeFunc(nullStringValuer, null.String{})

	return validate
}

// isoDate accepts calendar dates formatted as YYYY-MM-DD.
func isoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(constant.DateLayout, fl.Field().String())
	return err == nil
}

// entityID accepts ids generated by this service as well as the 16 character
// ids of rows created before it.
func entityID(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if ident.Valid(val) {
		return true
	}
	if len(val) != 16 {
		return false
	}
	for _, r := range val {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func nullIntValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.Int); ok {
		return valuer.Int64
	}

	return nil
}

func nullStringValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.String); ok {
		return valuer.String
	}

	return nil
}
