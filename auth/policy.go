package auth

import (
	"fmt"
	"strings"
)

// PolicyDeleteProvider guards provider removal
const PolicyDeleteProvider = "DeleteProvider"

// Policy is a named authorization rule. A request passes when its
// token carries a claim of ClaimType, with one of Values if any are set,
// and its role is at least MinimumRole when that is set.
type Policy struct {
	Name        string   `koanf:"name" yaml:"name" json:"name"`
	ClaimType   string   `koanf:"claim_type" yaml:"claim_type" json:"claim_type"`
	Values      []string `koanf:"values" yaml:"values" json:"values,omitempty"`
	MinimumRole string   `koanf:"minimum_role" yaml:"minimum_role" json:"minimum_role,omitempty"`
}

// DefaultPolicies returns the policies registered when none are configured
func DefaultPolicies() []Policy {
	return []Policy{
		{Name: PolicyDeleteProvider, ClaimType: PolicyDeleteProvider},
	}
}

// Allows evaluates the policy against claims
func (p Policy) Allows(claims AuthClaims) bool {
	if claims == nil {
		return false
	}
	if p.MinimumRole != "" && !claims.IsAtLeast(p.MinimumRole) {
		return false
	}
	if p.ClaimType == "" {
		return p.MinimumRole != ""
	}
	return claims.HasClaim(p.ClaimType, p.Values...)
}

func (p Policy) String() string {
	rule := p.ClaimType
	if len(p.Values) > 0 {
		rule += "=" + strings.Join(p.Values, "|")
	}
	if p.MinimumRole != "" {
		if rule != "" {
			rule += ","
		}
		rule += "role>=" + p.MinimumRole
	}
	return fmt.Sprintf("%s(%s)", p.Name, rule)
}

// PolicySet indexes policies by name
type PolicySet map[string]Policy

// NewPolicySet builds a set, later policies override earlier ones with the same name
func NewPolicySet(policies ...Policy) PolicySet {
	set := PolicySet{}
	for _, p := range policies {
		if p.Name == "" {
			continue
		}
		if p.ClaimType == "" && p.MinimumRole == "" {
			p.ClaimType = p.Name
		}
		set[p.Name] = p
	}
	return set
}

// Get returns the named policy
func (s PolicySet) Get(name string) (Policy, bool) {
	p, ok := s[name]
	return p, ok
}
