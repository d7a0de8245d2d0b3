package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "IT Logbook API",
        "description": "Industrial training logbook workflow service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Accounts and sessions"},
        {"name": "Logs", "description": "Weekly log lifecycle"},
        {"name": "Workflow", "description": "Internship completion workflow"},
        {"name": "Notifications", "description": "Per-user notification feed"},
        {"name": "Skills", "description": "Derived skill profiles"},
        {"name": "Users", "description": "User administration"},
        {"name": "Announcements", "description": "Admin notices"},
        {"name": "Cycles", "description": "Internship intake windows"},
        {"name": "Dashboards", "description": "Supervisor and admin overviews"},
        {"name": "Exports", "description": "Logbook report generation"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student or supervisor account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate the refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs": {
            "get": {
                "tags": ["Logs"],
                "summary": "List own logs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Logs"],
                "summary": "Submit a weekly log",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLogRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Logbook locked"}
                }
            }
        },
        "/logs/{id}": {
            "get": {
                "tags": ["Logs"],
                "summary": "Fetch a log",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Logs"],
                "summary": "Edit a log",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Approved log or locked logbook"}
                }
            },
            "delete": {
                "tags": ["Logs"],
                "summary": "Delete a log and retract its notifications",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/logs/{id}/review": {
            "post": {
                "tags": ["Logs"],
                "summary": "Approve or reject a pending log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewLogRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Feedback required for rejection"},
                    "409": {"description": "Log is not pending"}
                }
            }
        },
        "/logs/{id}/comment": {
            "post": {
                "tags": ["Logs"],
                "summary": "Comment on an approved log",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Log is not approved"}}
            }
        },
        "/workflow/final-review": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit the logbook for final review",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestFinalReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Unapproved logs remain"},
                    "409": {"description": "Illegal status transition"}
                }
            },
            "delete": {
                "tags": ["Workflow"],
                "summary": "Cancel a pending final review",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/sign-off": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Record the supervisor's final sign-off",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FinalSignOffRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/logs": {
            "get": {
                "tags": ["Logs"],
                "summary": "List a student's logs",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/skills": {
            "get": {
                "tags": ["Skills"],
                "summary": "List a student's derived skills",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Generate a logbook report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Signed download token"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List own notifications",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark one notification read",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Done"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/import": {
            "post": {
                "tags": ["Users"],
                "summary": "Bulk import users from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {"200": {"description": "Import summary"}}
            }
        },
        "/users/link-supervisor": {
            "post": {
                "tags": ["Users"],
                "summary": "Link a supervisor by shareable code",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Invalid code"}}
            }
        },
        "/dashboard/supervisor": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Supervisor overview",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/admin": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Admin overview",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Publish an announcement",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/cycles": {
            "get": {
                "tags": ["Cycles"],
                "summary": "List program cycles",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Cycles"],
                "summary": "Create a program cycle",
                "responses": {"201": {"description": "Created"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "surname": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "supervisor"]},
                "school": {"type": "string"},
                "department": {"type": "string"},
                "supervisor_code": {"type": "string"},
                "company_name": {"type": "string"}
            },
            "required": ["email", "password", "first_name", "surname", "role"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateLogRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date-time"},
                "week": {"type": "integer"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "attachments": {"type": "array", "items": {"$ref": "#/definitions/Attachment"}}
            },
            "required": ["date", "week", "title", "content"]
        },
        "ReviewLogRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "feedback": {"type": "string"}
            },
            "required": ["status"]
        },
        "RequestFinalReviewRequest": {
            "type": "object",
            "properties": {
                "final_summary": {"type": "string"}
            },
            "required": ["final_summary"]
        },
        "FinalSignOffRequest": {
            "type": "object",
            "properties": {
                "evaluation": {"type": "string"},
                "action": {"type": "string", "enum": ["approve", "request_changes"]}
            },
            "required": ["evaluation", "action"]
        },
        "Attachment": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "url": {"type": "string"}
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
