package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provider-api/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator builds route guards backed by bearer tokens
type RouteAuthenticator struct {
	validator TokenValidator
	cfg       Config
	policies  PolicySet
	Logger    Logger
	// ErrorHandler answers rejected requests, defaults to
	// jwtware.DefaultErrorHandler
	ErrorHandler func(c router.Context, err error) error
}

// NewHTTPAuthenticator returns a RouteAuthenticator. When no policies
// are given DefaultPolicies is used.
func NewHTTPAuthenticator(validator TokenValidator, cfg Config, policies ...Policy) *RouteAuthenticator {
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}

	return &RouteAuthenticator{
		validator:    validator,
		cfg:          cfg,
		policies:     NewPolicySet(policies...),
		Logger:       glog.Nop(),
		ErrorHandler: jwtware.DefaultErrorHandler,
	}
}

// ProtectedRoute requires an authenticated caller
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return jwtware.New(a.jwtConfig())
}

// RequirePolicy requires an authenticated caller that satisfies the
// named policy. It panics for unknown policies so misconfigured routes
// fail at startup.
func (a *RouteAuthenticator) RequirePolicy(name string) router.MiddlewareFunc {
	policy, ok := a.policies.Get(name)
	if !ok {
		panic("AUTH: unknown authorization policy " + name)
	}

	cfg := a.jwtConfig()
	cfg.ValidationListeners = append(cfg.ValidationListeners, func(_ router.Context, claims jwtware.AuthClaims) error {
		ac, _ := claims.(AuthClaims)
		if !policy.Allows(ac) {
			return fmt.Errorf("%w: policy %s", jwtware.ErrAccessDenied, policy)
		}
		return nil
	})

	return jwtware.New(cfg)
}

// Policies returns the registered policy names
func (a *RouteAuthenticator) Policies() []string {
	names := make([]string, 0, len(a.policies))
	for name := range a.policies {
		names = append(names, name)
	}
	return names
}

func (a *RouteAuthenticator) jwtConfig() jwtware.Config {
	return jwtware.Config{
		ErrorHandler:   a.handleError,
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		TokenValidator: routeTokenValidator{validator: a.validator},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	}
}

func (a *RouteAuthenticator) handleError(ctx router.Context, err error) error {
	a.Logger.Debug("request rejected", "path", ctx.Path(), "error", err)
	return a.ErrorHandler(ctx, err)
}

type routeTokenValidator struct {
	validator TokenValidator
}

func (v routeTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
