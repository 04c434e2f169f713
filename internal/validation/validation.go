package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"weyfar-booking/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report field names from json tags so error maps line up with payloads
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Struct validates any tagged struct and returns a field -> message map,
// or nil when the struct is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		errs[fieldPath(fe)] = message(fe)
	}
	return errs
}

// Passenger validates one passenger, keying errors by list position,
// e.g. "passengers[1].first_name".
func Passenger(p models.Passenger, idx int) map[string]string {
	errs := make(map[string]string)
	for field, msg := range Struct(p) {
		errs[fmt.Sprintf("passengers[%d].%s", idx, field)] = msg
	}

	if !p.DateOfBirth.IsZero() && p.DateOfBirth.After(time.Now()) {
		errs[fmt.Sprintf("passengers[%d].date_of_birth", idx)] = "Date of birth cannot be in the future"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Contact validates the booking contact block, keying errors under "contact.".
func Contact(c models.ContactInfo) map[string]string {
	raw := Struct(c)
	if raw == nil {
		return nil
	}
	errs := make(map[string]string, len(raw))
	for field, msg := range raw {
		errs["contact."+field] = msg
	}
	return errs
}

func fieldPath(fe validator.FieldError) string {
	// Namespace looks like "ContactInfo.address.city"; drop the root struct
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
