package types

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type ChatParams struct {
	VideoURL  string `json:"videoUrl" validate:"required"`
	Question  string `json:"question" validate:"required"`
	SessionID string `json:"sessionId,omitempty"`
}

type SessionParams struct {
	VideoURL  string `json:"videoUrl" validate:"required"`
	SessionID string `json:"sessionId" validate:"required"`
}

type ChatResponse struct {
	Answer       string `json:"answer"`
	SessionID    string `json:"sessionId"`
	IsNewSession bool   `json:"isNewSession"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *ChatParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SessionParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type ValidationError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Errors  map[string]string `json:"fields"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	fields := make([]string, 0, len(errors))
	for field := range errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msg := "missing or invalid fields:"
	for _, field := range fields {
		msg += " " + field
	}
	return ValidationError{
		Status:  400,
		Message: msg,
		Errors:  errors,
	}
}
