// Package docs holds the OpenAPI description of the status surface and
// registers it with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Handler status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.HandlerStatus"}
                    }
                }
            }
        },
        "/status/listeners/{name}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Status of one listener",
                "parameters": [
                    {"type": "string", "description": "listener name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.ListenerStatus"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    }
                }
            }
        },
        "/healthz": {
            "get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/readyz": {
            "get": {
                "summary": "Readiness probe",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 404},
                "error": {"type": "string", "example": "listener not found: worker-1"}
            }
        },
        "types.HandlerStatus": {
            "type": "object",
            "properties": {
                "listeners": {"type": "array", "items": {"$ref": "#/definitions/types.ListenerStatus"}},
                "name": {"type": "string", "example": "bench"},
                "ownership": {"type": "string", "example": "owning"},
                "running": {"type": "boolean", "example": true}
            }
        },
        "types.ListenerStatus": {
            "type": "object",
            "properties": {
                "callbacks": {"type": "integer", "example": 2},
                "callbacks_run": {"type": "integer", "example": 2048},
                "dispatched": {"type": "integer", "example": 1024},
                "error": {"type": "string"},
                "events": {"type": "integer", "example": 2},
                "name": {"type": "string", "example": "worker-1"},
                "state": {"type": "string", "example": "running"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "evbench status API",
	Description:      "Read-only status of a running event handler.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
