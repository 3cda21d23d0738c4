// Package docs registers the OpenAPI document served under /swagger. Regenerate
// it from the handler annotations with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/calls": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Calls"], "summary": "List calls", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Calls"], "summary": "Create a call", "responses": {"201": {"description": "Created"}}}
        },
        "/calls/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Calls"], "summary": "Get a call", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/calls/{id}/analyze": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Analysis"], "summary": "Analyze a call", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "504": {"description": "Analysis timed out"}}}
        },
        "/calls/{id}/report": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Calls"], "summary": "Get the analysis report", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/calls/{id}/recording/url": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Calls"], "summary": "Get a presigned recording URL", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/transcribe": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["Transcription"],
                "summary": "Transcribe an uploaded recording",
                "parameters": [
                    {"type": "string", "name": "callId", "in": "formData", "required": true},
                    {"type": "file", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "name": "speaker_metadata", "in": "formData"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/transcribe/stored": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Transcription"], "summary": "Transcribe a stored recording", "responses": {"200": {"description": "OK"}}}
        },
        "/webhooks/diarizer": {
            "post": {"tags": ["Webhooks"], "summary": "Diarizer webhook", "parameters": [{"type": "string", "name": "X-Signature", "in": "header", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Interview Analyzer API",
	Description:      "Call transcription with speaker attribution and LLM interview analysis",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
