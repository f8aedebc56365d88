package problem

import (
	stderrors "errors"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s sample) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(2, 10)),
		validation.Field(&s.Code, validation.Required),
	)
}

func TestFromError_OzzoErrors(t *testing.T) {
	err := sample{Name: "x"}.Validate()
	require.Error(t, err)

	p, ok := FromError(err)
	require.True(t, ok)

	assert.Equal(t, TypeBadRequest, p.Type)
	assert.Equal(t, TitleValidation, p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, []string{"code", "name"}, p.Fields())
	assert.Equal(t, []string{"cannot be blank"}, p.Errors["code"])
	assert.Len(t, p.Errors["name"], 1)
}

func TestFromError_NestedErrors(t *testing.T) {
	err := validation.Errors{
		"address": validation.Errors{
			"street": stderrors.New("cannot be blank"),
		},
		"name": nil,
	}

	p, ok := FromError(err)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"address.street": {"cannot be blank"}}, p.Errors)
}

func TestFromError_RichValidationErrors(t *testing.T) {
	err := errors.New("invalid payload", errors.CategoryValidation)
	err.ValidationErrors = errors.ValidationErrors{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "email", Message: "cannot be blank"},
	}

	p, ok := FromError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"must be a valid email address", "cannot be blank"}, p.Errors["email"])
}

func TestFromError_NotValidation(t *testing.T) {
	for name, err := range map[string]error{
		"nil":      nil,
		"plain":    stderrors.New("boom"),
		"rich":     errors.New("db down", errors.CategoryInternal),
		"internal": validation.NewInternalError(stderrors.New("bad rule")),
	} {
		t.Run(name, func(t *testing.T) {
			p, ok := FromError(err)
			assert.False(t, ok)
			assert.Nil(t, p)
		})
	}
}

func TestNewValidationProblem_NilFields(t *testing.T) {
	p := NewValidationProblem(nil)
	assert.NotNil(t, p.Errors)
	assert.Empty(t, p.Fields())
}
