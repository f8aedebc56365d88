package auth

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

var (
	reDigit           = regexp.MustCompile(`[0-9]`)
	reLowercase       = regexp.MustCompile(`[a-z]`)
	reUppercase       = regexp.MustCompile(`[A-Z]`)
	reNonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}]`)
)

// PasswordPolicy describes the complexity rules applied when an
// account is created
type PasswordPolicy struct {
	RequiredLength         int  `koanf:"required_length" yaml:"required_length" json:"required_length"`
	RequiredUniqueChars    int  `koanf:"required_unique_chars" yaml:"required_unique_chars" json:"required_unique_chars"`
	RequireDigit           bool `koanf:"require_digit" yaml:"require_digit" json:"require_digit"`
	RequireLowercase       bool `koanf:"require_lowercase" yaml:"require_lowercase" json:"require_lowercase"`
	RequireUppercase       bool `koanf:"require_uppercase" yaml:"require_uppercase" json:"require_uppercase"`
	RequireNonAlphanumeric bool `koanf:"require_non_alphanumeric" yaml:"require_non_alphanumeric" json:"require_non_alphanumeric"`
}

// DefaultPasswordPolicy mirrors the usual account store defaults
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		RequiredLength:         6,
		RequiredUniqueChars:    1,
		RequireDigit:           true,
		RequireLowercase:       true,
		RequireUppercase:       true,
		RequireNonAlphanumeric: true,
	}
}

type passwordRule struct {
	code        string
	description string
	rules       []validation.Rule
}

func (p PasswordPolicy) rules() []passwordRule {
	var out []passwordRule

	if p.RequiredLength > 0 {
		msg := fmt.Sprintf("Passwords must be at least %d characters.", p.RequiredLength)
		out = append(out, passwordRule{CodePasswordTooShort, msg, []validation.Rule{
			validation.Required.Error(msg),
			validation.RuneLength(p.RequiredLength, 0).Error(msg),
		}})
	}

	match := func(enabled bool, code string, re *regexp.Regexp, msg string) {
		if !enabled {
			return
		}
		out = append(out, passwordRule{code, msg, []validation.Rule{
			validation.Required.Error(msg),
			validation.Match(re).Error(msg),
		}})
	}
	match(p.RequireNonAlphanumeric, CodePasswordRequiresNonAlphanumeric, reNonAlphanumeric,
		"Passwords must have at least one non alphanumeric character.")
	match(p.RequireDigit, CodePasswordRequiresDigit, reDigit,
		"Passwords must have at least one digit ('0'-'9').")
	match(p.RequireLowercase, CodePasswordRequiresLower, reLowercase,
		"Passwords must have at least one lowercase ('a'-'z').")
	match(p.RequireUppercase, CodePasswordRequiresUpper, reUppercase,
		"Passwords must have at least one uppercase ('A'-'Z').")

	if p.RequiredUniqueChars > 1 {
		msg := fmt.Sprintf("Passwords must use at least %d different characters.", p.RequiredUniqueChars)
		out = append(out, passwordRule{CodePasswordRequiresUniqueChars, msg, []validation.Rule{
			validation.Required.Error(msg),
			validation.By(func(value any) error {
				s, _ := value.(string)
				unique := map[rune]struct{}{}
				for _, r := range s {
					unique[r] = struct{}{}
				}
				if len(unique) < p.RequiredUniqueChars {
					return errors.New(msg, errors.CategoryValidation)
				}
				return nil
			}),
		}})
	}

	return out
}

// Check returns every rule the password breaks, nil when it passes
func (p PasswordPolicy) Check(password string) IdentityErrors {
	var errs IdentityErrors
	for _, rule := range p.rules() {
		if err := validation.Validate(password, rule.rules...); err != nil {
			errs = append(errs, IdentityError{Code: rule.code, Description: rule.description})
		}
	}
	return errs
}
