// ABOUTME: Class form payload and its validation rules
// ABOUTME: Custom validator tags check weekday names and 24h HH:MM times

package schedule

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/recurrence"
)

// ClassRequest is what the user fills in to add a weekly class.
type ClassRequest struct {
	SubjectName   string `json:"subject_name" validate:"required"`
	SubjectCode   string `json:"subject_code" validate:"required"`
	Classroom     string `json:"classroom" validate:"required"`
	ProfessorName string `json:"professor_name" validate:"required"`
	Day           string `json:"day" validate:"required,weekday"`
	StartTime     string `json:"start_time" validate:"required,hhmm"`
	EndTime       string `json:"end_time" validate:"required,hhmm"`
}

// Payload builds the wire body for a resolved occurrence.
func (r ClassRequest) Payload(occ recurrence.Occurrence) *client.ClassPayload {
	day := r.Day
	if wd, err := recurrence.ParseWeekday(r.Day); err == nil {
		day = wd.String()
	}
	return &client.ClassPayload{
		SubjectName:   r.SubjectName,
		SubjectCode:   r.SubjectCode,
		Classroom:     r.Classroom,
		ProfessorName: r.ProfessorName,
		Day:           day,
		StartTime:     occ.StartISO(),
		EndTime:       occ.EndISO(),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("weekday", validateWeekday)
	_ = v.RegisterValidation("hhmm", validateHHMM)
	return v
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, err := recurrence.ParseWeekday(fl.Field().String())
	return err == nil
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := recurrence.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// Validate checks every field and reports the first problem in form terms.
func (r ClassRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "weekday":
		return fmt.Errorf("%s: %w", fe.Field(), recurrence.ErrInvalidWeekday)
	case "hhmm":
		return fmt.Errorf("%s must be HH:MM: %w", fe.Field(), recurrence.ErrInvalidTime)
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
