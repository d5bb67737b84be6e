package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Jury Scheduler API",
        "description": "Schedules oral-defense juries for pending final-year projects",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Juries", "description": "Automatic defense jury scheduling"}
    ],
    "paths": {
        "/juries/schedule": {
            "post": {
                "tags": ["Juries"],
                "summary": "Schedule juries for every pending project of a department",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleJuriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run summary", "schema": {"$ref": "#/definitions/ScheduleEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown department", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Partially persisted run, summary in data", "schema": {"$ref": "#/definitions/ScheduleEnvelope"}}
                }
            }
        },
        "/juries/schedule/jobs": {
            "post": {
                "tags": ["Juries"],
                "summary": "Queue an asynchronous scheduling run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleJuriesRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Asynchronous runs disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/juries/schedule/jobs/{id}": {
            "get": {
                "tags": ["Juries"],
                "summary": "Get the state of an asynchronous run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/juries/schedule/last": {
            "get": {
                "tags": ["Juries"],
                "summary": "Get the last recorded summary of a department",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "departmentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleEnvelope"}},
                    "404": {"description": "No run recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleJuriesRequest": {
            "type": "object",
            "required": ["departmentId", "startDate"],
            "properties": {
                "departmentId": {"type": "string"},
                "startDate": {"type": "string", "format": "date", "example": "2024-03-01"},
                "dryRun": {"type": "boolean"}
            }
        },
        "JuryAssignment": {
            "type": "object",
            "properties": {
                "juryId": {"type": "string"},
                "projectId": {"type": "string"},
                "projectTitle": {"type": "string"},
                "supervisorId": {"type": "string"},
                "presidentId": {"type": "string"},
                "reporterId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "08:30"},
                "location": {"type": "string", "example": "B12 - Block C"}
            }
        },
        "ScheduleJuriesResponse": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "string"},
                "startDate": {"type": "string"},
                "dryRun": {"type": "boolean"},
                "noWork": {"type": "boolean"},
                "total": {"type": "integer"},
                "scheduled": {"type": "integer"},
                "failed": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "persistenceErrors": {"type": "array", "items": {"type": "string"}},
                "juries": {"type": "array", "items": {"$ref": "#/definitions/JuryAssignment"}},
                "completedAt": {"type": "string", "format": "date-time"}
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
        },
        "ScheduleEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ScheduleJuriesResponse"},
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
