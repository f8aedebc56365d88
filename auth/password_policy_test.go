package auth_test

import (
	"testing"

	"github.com/goliatone/go-provider-api/auth"
	"github.com/stretchr/testify/assert"
)

func TestPasswordPolicy_Check(t *testing.T) {
	policy := auth.DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		codes    []string
	}{
		{"strong", "Passw0rd!", nil},
		{"too short", "Pa0!", []string{auth.CodePasswordTooShort}},
		{"no symbol", "Passw0rd", []string{auth.CodePasswordRequiresNonAlphanumeric}},
		{"no digit", "Password!", []string{auth.CodePasswordRequiresDigit}},
		{"no upper", "passw0rd!", []string{auth.CodePasswordRequiresUpper}},
		{"no lower", "PASSW0RD!", []string{auth.CodePasswordRequiresLower}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := policy.Check(tt.password)
			if tt.codes == nil {
				assert.Empty(t, errs)
				return
			}
			for _, code := range tt.codes {
				assert.True(t, errs.Has(code), "expected %s in %v", code, errs)
			}
			assert.Len(t, errs, len(tt.codes))
		})
	}
}

func TestPasswordPolicy_UniqueChars(t *testing.T) {
	policy := auth.PasswordPolicy{RequiredLength: 4, RequiredUniqueChars: 3}

	errs := policy.Check("aaaa")
	assert.True(t, errs.Has(auth.CodePasswordRequiresUniqueChars))
	assert.Empty(t, policy.Check("abca"))
}

func TestPasswordPolicy_EmptyPasswordBreaksEveryRule(t *testing.T) {
	policy := auth.DefaultPasswordPolicy()
	policy.RequiredUniqueChars = 2

	errs := policy.Check("")
	for _, code := range []string{
		auth.CodePasswordTooShort,
		auth.CodePasswordRequiresNonAlphanumeric,
		auth.CodePasswordRequiresDigit,
		auth.CodePasswordRequiresLower,
		auth.CodePasswordRequiresUpper,
		auth.CodePasswordRequiresUniqueChars,
	} {
		assert.True(t, errs.Has(code), "expected %s in %v", code, errs)
	}
	assert.Len(t, errs, 6)
	assert.Equal(t, "Passwords must be at least 6 characters.", errs[0].Description)
}

func TestPasswordPolicy_NonASCII(t *testing.T) {
	policy := auth.DefaultPasswordPolicy()

	assert.Empty(t, policy.Check("Pässw0rd€"))
	assert.True(t, policy.Check("Pässw0rdé").Has(auth.CodePasswordRequiresNonAlphanumeric))
	assert.Empty(t, auth.PasswordPolicy{}.Check(""))
}

func TestIdentityErrors_Error(t *testing.T) {
	errs := auth.IdentityErrors{{Code: "A", Description: "first"}, {Code: "B", Description: "second"}}
	assert.Equal(t, "A: first; B: second", errs.Error())
	assert.False(t, errs.Has("C"))
}
