// Package docs registers the OpenAPI specification served at /docs.
// Kept in sync by hand with the swagger annotations on the handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/cycle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["cycle"],
                "summary": "Run one notification cycle",
                "description": "Evaluates every (document type, threshold) combination and dispatches due expiry alerts. Rejected with 409 while a cycle is already running.",
                "responses": {
                    "200": {"description": "cycle summary"},
                    "409": {"description": "cycle already running"},
                    "500": {"description": "infrastructure failure"}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Dashboard stats",
                "description": "Returns per-company employee counts, per-document expiry breakdowns from the aggregate snapshots, and notification audit counts. Never sends notifications.",
                "responses": {
                    "200": {"description": "stats payload"},
                    "500": {"description": "infrastructure failure"}
                }
            }
        },
        "/views/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["views"],
                "summary": "Refresh aggregate snapshots",
                "description": "Rebuilds all materialized dashboard views immediately instead of waiting for the scheduled tick.",
                "responses": {
                    "200": {"description": "refreshed view names"},
                    "500": {"description": "refresh failure"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Expiry Engine API",
	Description:      "Document-expiry monitoring and notification engine: threshold evaluation, rate-limited batch email dispatch, notification audit trail, and periodically refreshed dashboard snapshots.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
