package auth

// TokenResponse is returned by register and login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	UserToken   UserToken `json:"user_token"`
}

// UserToken describes the user the token was issued for
type UserToken struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Claims []Claim `json:"claims"`
}
