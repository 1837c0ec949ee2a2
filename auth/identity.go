package auth

import "time"

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodNone      AuthMethod = "none"
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodPassword  AuthMethod = "password"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// User is a stored account.
type User struct {
	ID           string
	Email        string
	Name         string
	Plan         Plan
	PasswordHash []byte
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Account is the public view of a user. Token is set by Signup and Login.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  Plan   `json:"plan"`
	Token string `json:"token,omitempty"`
}

// Account returns the public view of u without a token.
func (u User) Account() Account {
	return Account{ID: u.ID, Email: u.Email, Name: u.Name, Plan: u.Plan}
}

// Identity represents an authenticated principal.
type Identity struct {
	// Principal is the user id.
	Principal string

	Email string
	Name  string
	Plan  Plan

	// Method indicates how authentication was performed.
	Method AuthMethod

	// ExpiresAt is when the presented token expires.
	ExpiresAt time.Time

	// IssuedAt is when the presented token was issued.
	IssuedAt time.Time
}

// IsExpired reports whether the identity has expired at now.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return now.After(id.ExpiresAt)
}

// IsAnonymous returns true if this is an anonymous identity.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// IsPremium reports whether the identity is on the premium plan.
func (id *Identity) IsPremium() bool {
	return id.Plan == PlanPremium
}

// Account returns the public view of the identity.
func (id *Identity) Account() Account {
	return Account{ID: id.Principal, Email: id.Email, Name: id.Name, Plan: id.Plan}
}

// AnonymousIdentity creates a default anonymous identity.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Plan:      PlanFree,
	}
}
