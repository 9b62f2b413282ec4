package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hostel/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enums := map[string][]string{
		"role":               {string(RoleAdmin), string(RoleStudent)},
		"room_type":          {string(RoomAC), string(RoomNonAC)},
		"attendance_status":  {string(Present), string(Absent)},
		"complaint_status":   {string(ComplaintPending), string(ComplaintInProgress), string(ComplaintResolved)},
		"complaint_category": {string(CategoryElectricity), string(CategoryWater), string(CategoryCleaning), string(CategoryFood), string(CategoryOther)},
	}
	for tag, allowed := range enums {
		allowed := allowed
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			val := fl.Field().String()
			for _, a := range allowed {
				if val == a {
					return true
				}
			}
			return false
		})
	}
	return v
}

// Validate checks the validate tags of a record and reports every failing
// field as an apperr.ValidationError.
func Validate(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.NewValidationError(err)
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: message(fe)})
	}
	return apperr.NewValidationError(nil, fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must not be negative"
	default:
		return "has an invalid value"
	}
}
