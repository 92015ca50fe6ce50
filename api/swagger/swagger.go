package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Izin Pramuka API",
        "description": "Permission slips for scout activities: submission, staff verification, printable letters",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Izin", "description": "Permission record lifecycle"},
        {"name": "Letters", "description": "Letter preview sessions and PDF export"},
        {"name": "Auth", "description": "Admin login"},
        {"name": "Verify", "description": "Public QR verification"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/izin": {
            "get": {
                "tags": ["Izin"],
                "summary": "List a submitter's permission records",
                "parameters": [
                    {"name": "nis", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Izin"],
                "summary": "Submit a permission request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIzinRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/izin/{id}": {
            "get": {
                "tags": ["Izin"],
                "summary": "Get one permission record",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/izin/{id}/verify": {
            "patch": {
                "tags": ["Izin"],
                "summary": "Approve or reject a pending record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyIzinRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/letters/preview": {
            "post": {
                "tags": ["Letters"],
                "summary": "Render a letter preview and open a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Ambiguous match", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/letters/{sid}/refresh": {
            "post": {
                "tags": ["Letters"],
                "summary": "Re-check a session's record status",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/letters/{sid}/export": {
            "post": {
                "tags": ["Letters"],
                "summary": "Export the letter as PDF, gated on approval",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "409": {"description": "Not approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/verify/{id}": {
            "get": {
                "tags": ["Verify"],
                "summary": "Public verification lookup for printed letters",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "CreateIzinRequest": {
            "type": "object",
            "required": ["nis", "nama", "absen", "kelas", "sangga", "pk_kelas"],
            "properties": {
                "nis": {"type": "string"},
                "nama": {"type": "string"},
                "absen": {"type": "string"},
                "kelas": {"type": "string"},
                "sangga": {"type": "string"},
                "pk_kelas": {"type": "string"},
                "alasan": {"type": "string"}
            }
        },
        "VerifyIzinRequest": {
            "type": "object",
            "required": ["status", "verified_by"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "verified_by": {"type": "string"}
            }
        },
        "PreviewRequest": {
            "type": "object",
            "properties": {
                "nis": {"type": "string"},
                "nama": {"type": "string"},
                "absen": {"type": "string"},
                "kelas": {"type": "string"},
                "sangga": {"type": "string"},
                "pk_kelas": {"type": "string"},
                "alasan": {"type": "string"},
                "izin_id": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
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
