// Package openapi generates the OpenAPI 3.1 document describing the HTTP
// surface. The route set is fixed, so the document is built once at startup
// and served verbatim.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI spec for the server at baseURL.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "WalletPilot API",
			Description: "API keys, wallet permission requests, transaction intents, and SDK telemetry.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Components.SecuritySchemes["apiKeyAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "http",
			Scheme:      "bearer",
			Description: "API key secret (wp_...) as the bearer token",
		},
	}

	doc.Components.Schemas["Envelope"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"success": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"data":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
				"error":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			},
		},
	}

	doc.Paths = openapi3.NewPaths()

	addPath(doc, "/", "GET", "Service info", nil)
	addPath(doc, "/health", "GET", "Liveness probe", nil)
	addPath(doc, "/readyz", "GET", "Readiness probe", nil)
	addPath(doc, "/openapi.json", "GET", "This document", nil)

	addPath(doc, "/waitlist", "POST", "Join the waitlist", nil)
	addPath(doc, "/waitlist/count", "GET", "Waitlist size", nil)
	addPath(doc, "/waitlist/list", "GET", "List waitlist emails (admin)", bearer())

	addPath(doc, "/v1/auth/signup", "POST", "Register an account", nil)
	addPath(doc, "/v1/auth/login", "POST", "Log in", nil)
	addPath(doc, "/v1/auth/refresh", "POST", "Refresh session tokens", nil)
	addPath(doc, "/v1/auth/me", "GET", "Account profile and API keys", bearer())
	addPath(doc, "/v1/auth/keys", "POST", "Create an API key", bearer())
	addPath(doc, "/v1/auth/keys/{id}", "DELETE", "Delete an API key", bearer())

	addPath(doc, "/v1/permissions/request", "POST", "Request a wallet permission", apiKey())
	addPath(doc, "/v1/permissions", "GET", "List permission requests", apiKey())
	addPath(doc, "/v1/permissions/{id}", "GET", "Get a permission request", apiKey())
	addPath(doc, "/v1/permissions/{id}", "DELETE", "Delete a permission request", apiKey())

	addPath(doc, "/v1/tx/execute", "POST", "Execute a transaction intent", apiKey())
	addPath(doc, "/v1/tx/{hash}", "GET", "Get a transaction by hash", apiKey())

	addPath(doc, "/v1/events", "POST", "Ingest an SDK usage event", nil)
	addPath(doc, "/v1/events", "GET", "List recent events", bearer())
	addPath(doc, "/v1/stats", "GET", "Aggregate usage stats", bearer())

	return doc
}

func bearer() *openapi3.SecurityRequirements {
	reqs := openapi3.NewSecurityRequirements().
		With(openapi3.SecurityRequirement{"bearerAuth": {}})
	return reqs
}

func apiKey() *openapi3.SecurityRequirements {
	reqs := openapi3.NewSecurityRequirements().
		With(openapi3.SecurityRequirement{"apiKeyAuth": {}})
	return reqs
}

func addPath(doc *openapi3.T, path, method, summary string, security *openapi3.SecurityRequirements) {
	op := openapi3.NewOperation()
	op.Summary = summary
	op.Responses = openapi3.NewResponses()
	op.Responses.Set("200", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Success").
			WithJSONSchemaRef(&openapi3.SchemaRef{Ref: "#/components/schemas/Envelope"}),
	})
	if security != nil {
		op.Security = security
	}

	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(path, item)
	}
	item.SetOperation(method, op)
}
