// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/lpgledger/backend"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/receivables/payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Record a customer payment",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.RecordPaymentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/receivables/cylinder-returns": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Record returned empty cylinders",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.RecordCylinderReturnRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/receivables/customers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "List customer receivables",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query", "description": "Comma separated statuses"},
                    {"type": "string", "name": "driver_id", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Create a customer receivable",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/customers/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Get a customer receivable with its payment and return history",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/receivables/drivers/{driver_id}/records": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "List a driver's daily receivable records",
                "parameters": [{"type": "string", "name": "driver_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/drivers/{driver_id}/reconcile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Reconcile a driver's daily records",
                "parameters": [{"type": "string", "name": "driver_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/drivers/{driver_id}/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receivables"],
                "summary": "Re-aggregate a driver day from its sales",
                "parameters": [
                    {"type": "string", "name": "driver_id", "in": "path", "required": true},
                    {"type": "string", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/receivables/recalculate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["recalculation"],
                "summary": "Recalculate drivers with recent activity",
                "parameters": [
                    {"type": "integer", "name": "days", "in": "query"},
                    {"type": "string", "name": "driver_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Recalculation in progress", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/receivables/recalculate-all": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["recalculation"],
                "summary": "Recalculate every driver of the tenant",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/admin/receivables/recalculate-all-tenants": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["recalculation"],
                "summary": "Recalculate every tenant",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/size-breakdown": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Outstanding cylinders by size",
                "parameters": [{"type": "string", "name": "as_of", "in": "query", "description": "YYYY-MM-DD"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/size-breakdown/validate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Compare the size breakdown with counted cylinders",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/changes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Receivable change log",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/receivables/changes/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["reports"],
                "summary": "Export the change log as a spreadsheet",
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/receivables/changes/archive": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Download link for an archived day of the change log",
                "parameters": [{"type": "string", "name": "date", "in": "query", "description": "YYYY-MM-DD, default yesterday"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "422": {"description": "Archive not configured", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/admin/receivables/changes/archive": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Archive one day of the change log for every tenant",
                "parameters": [{"type": "string", "name": "date", "in": "query", "description": "YYYY-MM-DD, default yesterday"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/sales": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sales"],
                "summary": "Record a sale and sync the driver's daily record",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/drivers/{driver_id}/onboarding": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sales"],
                "summary": "Seed a driver's opening balances",
                "parameters": [{"type": "string", "name": "driver_id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/assets/valuation": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Value cash and cylinders held by customers",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        },
        "/system/info": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["system"],
                "summary": "Service name and version",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}}
            }
        }
    },
    "definitions": {
        "dto.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "stats": {},
                "errors": {"type": "array", "items": {"type": "object"}},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"}
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "trace_id": {"type": "string"}
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "handler.RecordPaymentRequest": {
            "type": "object",
            "required": ["customer_receivable_id", "amount", "payment_method"],
            "properties": {
                "customer_receivable_id": {"type": "string"},
                "amount": {"type": "string", "example": "250.00"},
                "payment_method": {"type": "string", "enum": ["CASH", "BANK_TRANSFER", "MOBILE_MONEY", "CHEQUE", "OTHER"]},
                "notes": {"type": "string"}
            }
        },
        "handler.RecordCylinderReturnRequest": {
            "type": "object",
            "required": ["customer_receivable_id", "quantity"],
            "properties": {
                "customer_receivable_id": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "notes": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "LPG Ledger API",
	Description:      "Multi-tenant receivables ledger and cylinder reconciliation for LPG distributors",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
