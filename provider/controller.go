package provider

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-provider-api/docs"
	"github.com/goliatone/go-provider-api/problem"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

const (
	MsgSaveFailed   = "There was a problem saving the provider"
	MsgUpdateFailed = "There was a problem updating the provider"
	MsgRemoveFailed = "There was a problem removing the provider"
)

// Recorder counts handler outcomes
type Recorder interface {
	ObserveProviderOperation(op, outcome string)
}

const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeInvalid    = "invalid"
	OutcomeNotApplied = "not_applied"
)

type nopRecorder struct{}

func (nopRecorder) ObserveProviderOperation(string, string) {}

// RegisterProviderRoutes mounts the provider endpoints on app
func RegisterProviderRoutes[T any](app router.Router[T], opts ...ControllerOption) *Controller {
	c := NewController(opts...)

	app.Get(c.Path, c.List).
		SetName("GetProvider").
		SetSummary("List providers").
		AddTags(docs.TagProvider).
		AddResponse(http.StatusOK, "All providers", docs.JSON(docs.ArrayOf(docs.Ref("Provider"))))

	app.Get(c.Path+"/:id", c.Get).
		SetName("GetProviderById").
		SetSummary("Get a provider").
		AddTags(docs.TagProvider).
		AddParameter("id", "path", true, docs.UUID()).
		AddResponse(http.StatusOK, "The provider", docs.JSON(docs.Ref("Provider"))).
		AddResponse(http.StatusBadRequest, "Malformed id", docs.JSON(docs.Ref("ValidationProblem"))).
		AddResponse(http.StatusNotFound, "Not found", nil)

	app.Post(c.Path, c.Create, c.Authenticated...).
		SetName("PostProvider").
		SetSummary("Create a provider").
		SetDescription("Requires a bearer token.").
		AddTags(docs.TagProvider).
		SetRequestBody("Provider to create", true, docs.JSON(docs.Ref("Provider"))).
		AddResponse(http.StatusCreated, "Created", docs.JSON(docs.Ref("Provider"))).
		AddResponse(http.StatusBadRequest, "Validation problem", docs.JSON(docs.Ref("ValidationProblem"))).
		AddResponse(http.StatusUnauthorized, "Missing or invalid token", nil)

	app.Put(c.Path+"/:id", c.Update, c.Authenticated...).
		SetName("PutProvider").
		SetSummary("Replace a provider").
		SetDescription("Requires a bearer token.").
		AddTags(docs.TagProvider).
		AddParameter("id", "path", true, docs.UUID()).
		SetRequestBody("New provider fields", true, docs.JSON(docs.Ref("Provider"))).
		AddResponse(http.StatusNoContent, "Updated", nil).
		AddResponse(http.StatusBadRequest, "Validation problem", docs.JSON(docs.Ref("ValidationProblem"))).
		AddResponse(http.StatusUnauthorized, "Missing or invalid token", nil).
		AddResponse(http.StatusNotFound, "Not found", nil)

	app.Delete(c.Path+"/:id", c.Delete, c.CanDelete...).
		SetName("DeleteProvider").
		SetSummary("Remove a provider").
		SetDescription("Requires a bearer token that satisfies the DeleteProvider policy.").
		AddTags(docs.TagProvider).
		AddParameter("id", "path", true, docs.UUID()).
		AddResponse(http.StatusNoContent, "Removed", nil).
		AddResponse(http.StatusBadRequest, "Malformed id", docs.JSON(docs.Ref("ValidationProblem"))).
		AddResponse(http.StatusUnauthorized, "Missing or invalid token", nil).
		AddResponse(http.StatusForbidden, "Token does not satisfy the DeleteProvider policy", nil).
		AddResponse(http.StatusNotFound, "Not found", nil)

	return c
}

type Controller struct {
	Debug         bool
	Path          string
	Repo          Providers
	Logger        glog.Logger
	Metrics       Recorder
	Authenticated []router.MiddlewareFunc
	CanDelete     []router.MiddlewareFunc
}

type ControllerOption func(*Controller) *Controller

func WithRepository(repo Providers) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithLogger(l glog.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) *Controller {
		if r != nil {
			c.Metrics = r
		}
		return c
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

// WithGuards sets the middleware for write routes and the extra
// middleware for removal
func WithGuards(authenticated router.MiddlewareFunc, canDelete router.MiddlewareFunc) ControllerOption {
	return func(c *Controller) *Controller {
		if authenticated != nil {
			c.Authenticated = []router.MiddlewareFunc{authenticated}
		}
		if canDelete != nil {
			c.CanDelete = []router.MiddlewareFunc{canDelete}
		}
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Path:    "/provider",
		Logger:  glog.Nop(),
		Metrics: nopRecorder{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing Providers repository in provider controller...")
	}

	return c
}

func (c *Controller) List(ctx router.Context) error {
	records, err := c.Repo.ListProviders(ctx.Context())
	if err != nil {
		return err
	}
	c.Metrics.ObserveProviderOperation("list", OutcomeOK)
	return ctx.JSON(http.StatusOK, records)
}

func (c *Controller) Get(ctx router.Context) error {
	id, ok := c.pathID(ctx, "get")
	if !ok {
		return problem.WriteValidation(ctx, invalidIDError(ctx.Param("id")))
	}

	record, err := c.Repo.GetProvider(ctx.Context(), id)
	if err != nil {
		return c.notFoundOr(ctx, "get", err)
	}

	c.Metrics.ObserveProviderOperation("get", OutcomeOK)
	return ctx.JSON(http.StatusOK, record)
}

func (c *Controller) Create(ctx router.Context) error {
	payload := new(Provider)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Debug("unable to bind provider", "error", err)
		return problem.BadRequest(ctx, MsgSaveFailed)
	}
	c.dump("create", payload)

	if err := payload.Validate(); err != nil {
		c.Metrics.ObserveProviderOperation("create", OutcomeInvalid)
		return problem.WriteValidation(ctx, err)
	}

	n, err := c.Repo.InsertProvider(ctx.Context(), payload)
	if err != nil || n == 0 {
		c.Logger.Warn("provider insert not applied", "rows", n, "error", err)
		c.Metrics.ObserveProviderOperation("create", OutcomeNotApplied)
		return problem.BadRequest(ctx, MsgSaveFailed)
	}

	c.Metrics.ObserveProviderOperation("create", OutcomeOK)
	ctx.SetHeader("Location", fmt.Sprintf("%s/%s", c.Path, payload.ID))
	return ctx.JSON(http.StatusCreated, payload)
}

func (c *Controller) Update(ctx router.Context) error {
	id, ok := c.pathID(ctx, "update")
	if !ok {
		return problem.WriteValidation(ctx, invalidIDError(ctx.Param("id")))
	}

	if _, err := c.Repo.GetProvider(ctx.Context(), id); err != nil {
		return c.notFoundOr(ctx, "update", err)
	}

	payload := new(Provider)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Debug("unable to bind provider", "error", err)
		return problem.BadRequest(ctx, MsgUpdateFailed)
	}
	c.dump("update", payload)

	if err := payload.Validate(); err != nil {
		c.Metrics.ObserveProviderOperation("update", OutcomeInvalid)
		return problem.WriteValidation(ctx, err)
	}

	payload.ID = id

	n, err := c.Repo.ReplaceProvider(ctx.Context(), payload)
	if err != nil || n == 0 {
		c.Logger.Warn("provider update not applied", "id", id.String(), "rows", n, "error", err)
		c.Metrics.ObserveProviderOperation("update", OutcomeNotApplied)
		return problem.BadRequest(ctx, MsgUpdateFailed)
	}

	c.Metrics.ObserveProviderOperation("update", OutcomeOK)
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) Delete(ctx router.Context) error {
	id, ok := c.pathID(ctx, "delete")
	if !ok {
		return problem.WriteValidation(ctx, invalidIDError(ctx.Param("id")))
	}

	if _, err := c.Repo.GetProvider(ctx.Context(), id); err != nil {
		return c.notFoundOr(ctx, "delete", err)
	}

	n, err := c.Repo.RemoveProvider(ctx.Context(), id)
	if err != nil || n == 0 {
		c.Logger.Warn("provider removal not applied", "id", id.String(), "rows", n, "error", err)
		c.Metrics.ObserveProviderOperation("delete", OutcomeNotApplied)
		return problem.BadRequest(ctx, MsgRemoveFailed)
	}

	c.Metrics.ObserveProviderOperation("delete", OutcomeOK)
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) pathID(ctx router.Context, op string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		c.Metrics.ObserveProviderOperation(op, OutcomeInvalid)
		return uuid.Nil, false
	}
	return id, true
}

func (c *Controller) notFoundOr(ctx router.Context, op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		c.Metrics.ObserveProviderOperation(op, OutcomeNotFound)
		return ctx.Status(http.StatusNotFound).Send(nil)
	}
	return err
}

func (c *Controller) dump(op string, p *Provider) {
	if !c.Debug {
		return
	}
	fmt.Printf("======= PROVIDER %s ======\n", op)
	fmt.Println(print.MaybePrettyJSON(p))
	fmt.Println("===========================")
}

func invalidIDError(raw string) error {
	err := errors.New("invalid provider id", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest)
	err.ValidationErrors = errors.ValidationErrors{{
		Field:   "id",
		Message: fmt.Sprintf("The value '%s' is not valid.", raw),
		Value:   raw,
	}}
	return err
}
