package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provider-api/docs"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-provider-api/problem"
	"github.com/goliatone/go-router"
)

const (
	MsgUserNotProvided    = "User not provided"
	MsgLockedOut          = "User temporarily locked out due to invalid attempts"
	MsgInvalidCredentials = "Invalid username or password"
)

// AccountService is what the controller needs from the authenticator
type AccountService interface {
	Login(ctx context.Context, identifier, password string) (*TokenResponse, error)
	Register(ctx context.Context, msg RegisterUserMessage) (*TokenResponse, error)
}

var _ AccountService = (*Auther)(nil)

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("RegisterUser").
		SetSummary("Create an account").
		AddTags(docs.TagUser).
		SetRequestBody("Account credentials", true, docs.JSON(docs.Ref("RegisterUser"))).
		AddResponse(http.StatusOK, "Account created", docs.JSON(docs.Ref("TokenResponse"))).
		AddResponse(http.StatusBadRequest, "Validation problem or identity errors",
			docs.JSON(docs.ArrayOf(docs.Ref("IdentityError"))))

	app.Post(controller.Routes.Login, controller.Login).
		SetName("LoginUser").
		SetSummary("Sign in").
		AddTags(docs.TagUser).
		SetRequestBody("Credentials", true, docs.JSON(docs.Ref("LoginUser"))).
		AddResponse(http.StatusOK, "Signed in", docs.JSON(docs.Ref("TokenResponse"))).
		AddResponse(http.StatusBadRequest, "Invalid credentials or locked out", nil)

	return controller
}

type AuthControllerRoutes struct {
	Login    string
	Register string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Accounts AccountService
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithAccountService(s AccountService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Accounts = s
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: glog.Nop(),
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Register: "/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing AccountService in auth controller...")
	}

	return c
}

// RegisterUserPayload is the registration request body
type RegisterUserPayload struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			validation.Length(0, 256),
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 72),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.In(r.Password).Error("must match password"),
		),
	)
}

// LoginUserPayload is the login request body
type LoginUserPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 72),
		),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterUserPayload)
	if ok, err := a.bindPayload(ctx, payload); !ok {
		return err
	}

	if err := payload.Validate(); err != nil {
		return problem.WriteValidation(ctx, err)
	}

	res, err := a.Accounts.Register(ctx.Context(), RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		var idErrs IdentityErrors
		if errors.As(err, &idErrs) {
			return ctx.JSON(http.StatusBadRequest, idErrs)
		}
		if errors.IsCategory(err, errors.CategoryConflict) {
			a.Logger.Warn("registration rejected by store", "error", err)
			return ctx.JSON(http.StatusBadRequest, defaultIdentityErrors())
		}
		a.Logger.Error("registration failed", "error", err)
		return err
	}

	return ctx.JSON(http.StatusOK, res)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginUserPayload)
	if ok, err := a.bindPayload(ctx, payload); !ok {
		return err
	}

	if err := payload.Validate(); err != nil {
		return problem.WriteValidation(ctx, err)
	}

	res, err := a.Accounts.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		if IsLockedOutError(err) {
			return problem.BadRequest(ctx, MsgLockedOut)
		}
		if !IsInvalidCredentialsError(err) {
			a.Logger.Error("login failed", "error", err)
		}
		return problem.BadRequest(ctx, MsgInvalidCredentials)
	}

	return ctx.JSON(http.StatusOK, res)
}

// bindPayload reports false when the response was already written or
// binding failed, in which case the returned error is the handler result
func (a *AuthController) bindPayload(ctx router.Context, payload any) (bool, error) {
	body := bytes.TrimSpace(ctx.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return false, problem.BadRequest(ctx, MsgUserNotProvided)
	}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("unable to bind payload", "error", err)
		return false, problem.BadRequest(ctx, MsgUserNotProvided)
	}

	if a.Debug {
		fmt.Println("======= AUTH PAYLOAD ======")
		fmt.Println(print.MaybePrettyJSON(redacted(payload)))
		fmt.Println("===========================")
	}

	return true, nil
}

func redacted(payload any) any {
	switch p := payload.(type) {
	case *RegisterUserPayload:
		return RegisterUserPayload{Email: p.Email, Password: "***", ConfirmPassword: "***"}
	case *LoginUserPayload:
		return LoginUserPayload{Email: p.Email, Password: "***"}
	}
	return payload
}
