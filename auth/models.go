package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Username and email are the same value
// for accounts created through registration.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	EmailValidated bool       `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`
	LoginAttempts  int        `bun:"login_attempts,notnull,default:0" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserClaim is a named assertion attached to a user. Claims end up in
// the access token and are what route policies check.
type UserClaim struct {
	bun.BaseModel `bun:"table:user_claims,alias:uc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Type          string     `bun:"claim_type,notnull" json:"type"`
	Value         string     `bun:"claim_value,notnull" json:"value"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Claim is the wire form of a claim
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimTypeRole is the claim type used to expose the user role
const ClaimTypeRole = "role"

// ToClaim drops persistence fields
func (c *UserClaim) ToClaim() Claim {
	return Claim{Type: c.Type, Value: c.Value}
}
