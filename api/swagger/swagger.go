package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Habit API",
        "description": "Onboarding imports, habit submissions and activity reports for school homerooms.",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Imports", "description": "Student, teacher and guardian onboarding from xlsx or csv"},
        {"name": "Submissions", "description": "Daily habit records and their approval"},
        {"name": "Reports", "description": "Multi-sheet activity reports and signed archives"}
    ],
    "paths": {
        "/imports/{kind}": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import onboarding rows",
                "description": "Creates accounts row by row; rejected rows are listed in failures and do not stop the batch.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["students", "teachers", "guardians"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "class_id", "in": "formData", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ImportEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported file type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Another import is running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{kind}/template": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download onboarding template",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["students", "teachers", "guardians"]}
                ],
                "responses": {
                    "200": {"description": "Template workbook", "schema": {"type": "file"}},
                    "400": {"description": "Unknown kind", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Record a habit",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Pending submission", "schema": {"$ref": "#/definitions/SubmissionEnvelope"}},
                    "400": {"description": "Invalid details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already recorded today", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Get a submission",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Submission", "schema": {"$ref": "#/definitions/SubmissionEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/approve": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Approve a pending submission",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/SubmissionEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/reject": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Reject a pending submission",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/SubmissionEnvelope"}},
                    "400": {"description": "Reason required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/activities": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an activity report",
                "produces": [
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "application/pdf",
                    "text/csv"
                ],
                "parameters": [
                    {"name": "class_id", "in": "query", "required": true, "type": "string"},
                    {"name": "start_date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "required": false, "type": "string", "enum": ["xlsx", "pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/activities/archive": {
            "post": {
                "tags": ["Reports"],
                "summary": "Archive a report behind a signed link",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Archived", "schema": {"$ref": "#/definitions/ArchiveEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an archived report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Archive removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ImportFailure": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "kind": {"type": "string"},
                "field": {"type": "string"},
                "fields": {"type": "array", "items": {"type": "string"}},
                "messages": {"type": "array", "items": {"type": "string"}},
                "values": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "total_rows": {"type": "integer"},
                "imported_count": {"type": "integer"},
                "skipped_count": {"type": "integer"},
                "failures": {"type": "array", "items": {"$ref": "#/definitions/ImportFailure"}}
            }
        },
        "SubmitRequest": {
            "type": "object",
            "required": ["student_id", "activity_type_id", "date"],
            "properties": {
                "student_id": {"type": "string"},
                "activity_type_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "time": {"type": "string", "example": "05:30"},
                "notes": {"type": "string"},
                "photo_path": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["approver_id"],
            "properties": {
                "approver_id": {"type": "string", "format": "uuid"},
                "reason": {"type": "string"}
            }
        },
        "ActivityDetail": {
            "type": "object",
            "properties": {
                "field_name": {"type": "string"},
                "field_label": {"type": "string"},
                "field_type": {"type": "string"},
                "bool_value": {"type": "boolean"},
                "text_value": {"type": "string"},
                "position": {"type": "integer"}
            }
        },
        "Submission": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "activity_type_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "submitted_on": {"type": "string", "format": "date"},
                "submitted_time": {"type": "string"},
                "photo_path": {"type": "string"},
                "notes": {"type": "string"},
                "approved_by": {"type": "string"},
                "approved_at": {"type": "string", "format": "date-time"},
                "rejection_reason": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/ActivityDetail"}}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["class_id", "start_date", "end_date"],
            "properties": {
                "class_id": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "format": {"type": "string", "enum": ["xlsx", "pdf", "csv"]}
            }
        },
        "ArchivedReport": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "url": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
        "ImportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ImportResult"}
            }
        },
        "SubmissionEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Submission"}
            }
        },
        "ArchiveEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ArchivedReport"}
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
