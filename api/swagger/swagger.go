package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Les Privat API",
        "description": "Tutoring-session scheduling, attendance and payroll backend",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Token issuance"},
        {"name": "Schedule", "description": "Lesson sequence management"},
        {"name": "Attendance", "description": "Write-once attendance ledger"},
        {"name": "Stats", "description": "Recap projections and payroll"},
        {"name": "Admin", "description": "Periodic trigger entry points"}
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
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}/lessons": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate the lesson sequence for a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Schedule"],
                "summary": "List the lesson sequence of a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}/reschedule": {
            "patch": {
                "tags": ["Schedule"],
                "summary": "Move a lesson to a new date (allowed once)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already rescheduled or attendance recorded"}
                }
            }
        },
        "/api/v1/lessons/{id}/info": {
            "put": {
                "tags": ["Schedule"],
                "summary": "Overwrite the lesson annotation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnnotateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for the authenticated participant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already recorded"},
                    "412": {"description": "Tutor not yet present"}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records of a lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}/recap": {
            "get": {
                "tags": ["Stats"],
                "summary": "Attendance recap for a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/l/{slug}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Resolve a lesson from its shareable slug",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications, newest first",
                "parameters": [
                    {"name": "limit", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/admin/sweep": {
            "post": {
                "tags": ["Admin"],
                "summary": "Back-fill absences for lapsed unattended lessons",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/admin/orders/cancel-stale": {
            "post": {
                "tags": ["Admin"],
                "summary": "Cancel orders pending past their TTL",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2026-09-14 08:00"}
            },
            "required": ["date"]
        },
        "AnnotateRequest": {
            "type": "object",
            "properties": {
                "info": {"type": "string"}
            },
            "required": ["info"]
        },
        "RecordRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["present", "excused", "absent"]},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "Lesson": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "class_id": {"type": "string"},
                "meet": {"type": "integer"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["scheduled", "rescheduled"]},
                "slug": {"type": "string"},
                "info": {"type": "string"}
            }
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "lesson_id": {"type": "string"},
                "participant_id": {"type": "string"},
                "role": {"type": "string", "enum": ["tutor", "student"]},
                "status": {"type": "string", "enum": ["present", "excused", "absent"]},
                "reason": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "PayrollRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tutor_id": {"type": "string"},
                "order_id": {"type": "string"},
                "amount": {"type": "number"},
                "status": {"type": "string", "enum": ["pending", "paid"]},
                "created_at": {"type": "string"}
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
