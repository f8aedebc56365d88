// Package problem renders the JSON problem bodies the API answers
// with when a request payload fails validation.
package problem

import (
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	// TypeBadRequest identifies 400 problems
	TypeBadRequest = "https://tools.ietf.org/html/rfc7231#section-6.5.1"
	// TitleValidation is the title of every validation problem
	TitleValidation = "One or more validation errors occurred."
)

// ValidationProblem is a field to messages report
type ValidationProblem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors"`
}

// NewValidationProblem wraps a field map in a 400 problem
func NewValidationProblem(fields map[string][]string) *ValidationProblem {
	if fields == nil {
		fields = map[string][]string{}
	}
	return &ValidationProblem{
		Type:   TypeBadRequest,
		Title:  TitleValidation,
		Status: http.StatusBadRequest,
		Errors: fields,
	}
}

// Fields returns the sorted field names in the report
func (p *ValidationProblem) Fields() []string {
	out := make([]string, 0, len(p.Errors))
	for k := range p.Errors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FromError converts validation failures into a problem. It returns
// false for errors that are not about the payload, including ozzo
// internal errors raised by misconfigured rules.
func FromError(err error) (*ValidationProblem, bool) {
	if err == nil {
		return nil, false
	}

	if _, ok := err.(validation.InternalError); ok {
		return nil, false
	}

	var ozzoErrs validation.Errors
	if errors.As(err, &ozzoErrs) {
		fields := map[string][]string{}
		flatten("", ozzoErrs, fields)
		return NewValidationProblem(fields), true
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && len(richErr.ValidationErrors) > 0 {
		fields := map[string][]string{}
		for _, fe := range richErr.ValidationErrors {
			fields[fe.Field] = append(fields[fe.Field], fe.Message)
		}
		return NewValidationProblem(fields), true
	}

	return nil, false
}

func flatten(prefix string, errs validation.Errors, out map[string][]string) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		if nested, ok := err.(validation.Errors); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = append(out[key], err.Error())
	}
}

// WriteValidation answers 400 with the problem for err. Errors that are
// not validation failures are returned untouched for the router to handle.
func WriteValidation(ctx router.Context, err error) error {
	p, ok := FromError(err)
	if !ok {
		return err
	}
	return ctx.JSON(http.StatusBadRequest, p)
}

// BadRequest answers 400 with message as a JSON string body
func BadRequest(ctx router.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, message)
}
