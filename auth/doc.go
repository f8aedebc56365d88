// Package auth handles accounts, sign in and bearer tokens for the API.
//
// Accounts live in the users table and are created by RegisterUserHandler.
// UserProvider verifies passwords and tracks failed attempts so repeated
// failures lock the account for a while. Auther ties both to the
// TokenService and answers with a TokenResponse. RouteAuthenticator builds
// the route guards, either plain authentication or a named Policy that
// requires a claim.
package auth
