package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "VetLink API",
        "description": "Veterinary telehealth slot scheduling and booking engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Availability", "description": "Provider availability windows"},
        {"name": "Appointments", "description": "Booking, reschedule, cancellation"},
        {"name": "Slots", "description": "Slot listing and manual status toggles"},
        {"name": "Statistics", "description": "Schedule statistics and exports"}
    ],
    "paths": {
        "/providers/{id}/availability": {
            "put": {
                "tags": ["Availability"],
                "summary": "Replace a provider's availability for the affected days",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Per-cell replacement outcomes"},
                    "400": {"description": "Invalid window or payload"},
                    "404": {"description": "No matching slots"}
                }
            }
        },
        "/appointments": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an available slot",
                "responses": {
                    "201": {"description": "Appointment created"},
                    "409": {"description": "Slot not available"}
                }
            }
        },
        "/appointments/{id}/reschedule": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Move an appointment to another available slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Reschedule committed"},
                    "400": {"description": "Past slot or invalid payload"},
                    "404": {"description": "Appointment not found"},
                    "409": {"description": "Slot not available"}
                }
            }
        },
        "/appointments/{id}": {
            "delete": {
                "tags": ["Appointments"],
                "summary": "Cancel an appointment and release its slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "404": {"description": "Appointment not found"}
                }
            }
        },
        "/providers/{id}/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List a provider's slots",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Slot page"}
                }
            }
        },
        "/slots/{id}/status": {
            "patch": {
                "tags": ["Slots"],
                "summary": "Manually toggle a slot between available, disabled and blocked",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Updated slot"},
                    "409": {"description": "Slot booked or changed concurrently"}
                }
            }
        },
        "/providers/{id}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Provider schedule statistics over a date range",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "start", "in": "query", "type": "string", "required": true},
                    {"name": "end", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Statistics report or export payload"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
