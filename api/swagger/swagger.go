package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trimly Booking API",
        "description": "Multi-service appointment scheduling engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduling", "description": "Slot search and booking"},
        {"name": "DaySheets", "description": "Specialist run sheet exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/slots/search": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Search feasible multi-service schedule candidates",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotSearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Ranked candidates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No specialists or no feasible schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Book a schedule candidate",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Appointment created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Requested start no longer feasible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/specialists/{id}/day-sheet": {
            "get": {
                "tags": ["DaySheets"],
                "summary": "Export a specialist's day sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Rendered day sheet"},
                    "404": {"description": "Specialist not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/specialists/{id}/day-sheet/link": {
            "get": {
                "tags": ["DaySheets"],
                "summary": "Create a signed download link for an archived day sheet",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Signed token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/day-sheets/archives/{token}": {
            "get": {
                "tags": ["DaySheets"],
                "summary": "Download an archived day sheet by token",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Archived day sheet"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SlotSearchRequest": {
            "type": "object",
            "required": ["shopId", "date", "serviceIds"],
            "properties": {
                "shopId": {"type": "string"},
                "date": {"type": "string", "example": "2026-09-01"},
                "serviceIds": {"type": "array", "items": {"type": "string"}},
                "specialistPins": {"type": "object", "additionalProperties": {"type": "string"}},
                "orderingStrategy": {"type": "string", "enum": ["shortest_first", "longest_first", "highest_priority", "dependencies"]},
                "optimizationStrategy": {"type": "string", "enum": ["total_duration", "wait_time", "utilization"]},
                "allowParallel": {"type": "boolean"}
            }
        },
        "CreateBookingRequest": {
            "type": "object",
            "required": ["shopId", "date", "serviceIds", "startTime", "customerId"],
            "properties": {
                "shopId": {"type": "string"},
                "date": {"type": "string", "example": "2026-09-01"},
                "serviceIds": {"type": "array", "items": {"type": "string"}},
                "specialistPins": {"type": "object", "additionalProperties": {"type": "string"}},
                "orderingStrategy": {"type": "string"},
                "optimizationStrategy": {"type": "string"},
                "allowParallel": {"type": "boolean"},
                "startTime": {"type": "string", "format": "date-time"},
                "customerId": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
