package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate checks nights >= 1 and that Start is not before the calendar day of now.
func (r SearchRequest) Validate(now time.Time) error {
	v := validator.New()
	today := truncateDay(now)
	if err := v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && !truncateDay(t.In(now.Location())).Before(today)
	}); err != nil {
		return err
	}

	err := v.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "notpast":
			msgs = append(msgs, "start date is in the past")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
