// Package docs describes the API with the go-router OpenAPI renderer.
// Operations come from the metadata each controller attaches to its
// routes, this package contributes the shared components and serves
// the generated document with a browsable page.
package docs

import (
	"github.com/goliatone/go-router"
)

const (
	DocumentPath = "/swagger/v1/swagger.json"
	YAMLPath     = "/swagger/v1/swagger.yaml"
	UIPath       = "/swagger"

	BearerScheme = "Bearer"

	TagProvider = "Provider"
	TagUser     = "User"
)

// JSON is a request or response content map with a single
// application/json media type
func JSON(schema map[string]any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}

// Ref points at a schema declared in the shared components
func Ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

// ArrayOf wraps schema in an array schema
func ArrayOf(schema map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": schema}
}

// UUID is the schema of resource identifiers in paths
func UUID() map[string]any {
	return map[string]any{"type": "string", "format": "uuid"}
}

// NewRenderer returns a renderer seeded with the API info, the bearer
// security scheme and the payload schemas routes refer to
func NewRenderer(title, version string) *router.OpenAPIRenderer {
	return router.NewOpenAPIRenderer(router.OpenAPIRenderer{
		Info: &router.OpenAPIInfo{
			Title:       title,
			Version:     version,
			Description: "Provider catalogue with account registration and JWT sign in.",
		},
		Tags: []any{
			map[string]any{"name": TagProvider, "description": "Supplier records"},
			map[string]any{"name": TagUser, "description": "Accounts and access tokens"},
		},
		Components: map[string]any{
			"securitySchemes": map[string]any{
				BearerScheme: map[string]any{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
					"description":  "Paste the access_token returned by /login",
				},
			},
			"schemas": schemas(),
		},
	})
}

// RegisterRoutes serves the JSON and YAML documents plus the UI page.
// The document is rendered per request from the routes registered on
// r at that time.
func RegisterRoutes[T any](r router.Router[T], renderer *router.OpenAPIRenderer) {
	title := renderer.Title
	if renderer.Info != nil && renderer.Info.Title != "" {
		title = renderer.Info.Title
	}

	router.ServeOpenAPI(r, renderer,
		router.WithOpenAPIPath("/swagger/v1/swagger"),
		router.WithDocsPath(UIPath),
		router.WithTitle(title),
		router.WithOpenAPIEndpointsInSpec(false),
	)
}

func str(extra ...map[string]any) map[string]any {
	s := map[string]any{"type": "string"}
	for _, e := range extra {
		for k, v := range e {
			s[k] = v
		}
	}
	return s
}

func schemas() map[string]any {
	return map[string]any{
		"Provider": map[string]any{
			"type":     "object",
			"required": []string{"name", "document"},
			"properties": map[string]any{
				"id":       UUID(),
				"name":     str(map[string]any{"minLength": 2, "maxLength": 200}),
				"document": str(map[string]any{"minLength": 11, "maxLength": 14, "pattern": "^[0-9]+$"}),
				"active":   map[string]any{"type": "boolean"},
				"address":  str(map[string]any{"maxLength": 300}),
			},
		},
		"RegisterUser": map[string]any{
			"type":     "object",
			"required": []string{"email", "password", "confirm_password"},
			"properties": map[string]any{
				"email":            str(map[string]any{"format": "email", "maxLength": 256}),
				"password":         str(map[string]any{"format": "password", "minLength": 6, "maxLength": 72}),
				"confirm_password": str(map[string]any{"format": "password"}),
			},
		},
		"LoginUser": map[string]any{
			"type":     "object",
			"required": []string{"email", "password"},
			"properties": map[string]any{
				"email":    str(map[string]any{"format": "email"}),
				"password": str(map[string]any{"format": "password", "minLength": 6, "maxLength": 72}),
			},
		},
		"Claim": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type":  str(),
				"value": str(),
			},
		},
		"TokenResponse": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"access_token": str(),
				"token_type":   str(),
				"expires_in":   map[string]any{"type": "integer"},
				"user_token": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":     str(),
						"email":  str(map[string]any{"format": "email"}),
						"claims": ArrayOf(Ref("Claim")),
					},
				},
			},
		},
		"IdentityError": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":        str(),
				"description": str(),
			},
		},
		"ValidationProblem": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type":   str(),
				"title":  str(),
				"status": map[string]any{"type": "integer"},
				"errors": map[string]any{
					"type":                 "object",
					"additionalProperties": ArrayOf(str()),
				},
			},
		},
	}
}
