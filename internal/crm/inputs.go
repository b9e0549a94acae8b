package crm

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const reminderDateLayout = "2006-01-02"

// CreateLeadInput carries the fields accepted when a lead is created.
// Stage defaults to "new" when blank.
type CreateLeadInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Email   string `json:"email" validate:"required,max=320"`
	Phone   string `json:"phone" validate:"max=64"`
	Source  string `json:"source" validate:"max=120"`
	Stage   string `json:"stage"`
}

func (in CreateLeadInput) normalized() CreateLeadInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Source = strings.TrimSpace(in.Source)
	in.Stage = strings.TrimSpace(in.Stage)
	return in
}

// LeadPatch is a shallow partial update. Nil fields are left untouched;
// an empty optional field clears it.
type LeadPatch struct {
	Name    *string `json:"name" validate:"omitnil,min=1,max=200"`
	Company *string `json:"company" validate:"omitnil,max=200"`
	Email   *string `json:"email" validate:"omitnil,min=1,max=320"`
	Phone   *string `json:"phone" validate:"omitnil,max=64"`
	Source  *string `json:"source" validate:"omitnil,max=120"`
	Stage   *string `json:"stage"`
}

func (p LeadPatch) normalized() LeadPatch {
	p.Name = trimmedPtr(p.Name)
	p.Company = trimmedPtr(p.Company)
	p.Email = trimmedPtr(p.Email)
	p.Phone = trimmedPtr(p.Phone)
	p.Source = trimmedPtr(p.Source)
	p.Stage = trimmedPtr(p.Stage)
	return p
}

// ReminderInput carries a follow-up: a calendar date (YYYY-MM-DD) and a note.
type ReminderInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Note string `json:"note" validate:"required,max=2000"`
}

func (in ReminderInput) normalized() ReminderInput {
	in.Date = strings.TrimSpace(in.Date)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

type MeetingInput struct {
	Title    string    `json:"title" validate:"required,max=200"`
	LeadID   string    `json:"leadId" validate:"required"`
	DateTime time.Time `json:"dateTime" validate:"required"`
	Notes    string    `json:"notes" validate:"max=4000"`
}

func (in MeetingInput) normalized() MeetingInput {
	in.Title = strings.TrimSpace(in.Title)
	in.LeadID = strings.TrimSpace(in.LeadID)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date formatted %s", fe.Param())
	}
	return "is invalid"
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// optional converts a trimmed value into an optional field, treating "" as absent.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
