package provider

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Provider is a registered supplier. Document holds a CPF (11 digits)
// or CNPJ (14 digits) without punctuation.
type Provider struct {
	bun.BaseModel `bun:"table:providers,alias:p"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Document      string    `bun:"document,notnull" json:"document"`
	Active        bool      `bun:"active,notnull" json:"active"`
	Address       string    `bun:"address" json:"address"`
}

// Validate will run validation rules
func (p Provider) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Name,
			validation.Required,
			validation.Length(2, 200),
		),
		validation.Field(
			&p.Document,
			validation.Required,
			validation.Length(11, 14),
			validation.Match(digitsOnly).Error("must contain digits only"),
		),
		validation.Field(
			&p.Address,
			validation.Length(0, 300),
		),
	)
}
