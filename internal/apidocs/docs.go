// Package apidocs holds the OpenAPI document served under /swagger when the
// binary is built with -tags=swagger. Regenerate with
// `swag init -g cmd/chatd/docs.go -o internal/apidocs` after changing handler
// annotations.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "chatd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/system_stats": {
            "get": {
                "description": "CPU percentages are measured since the previous call; the first call reports 0.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Host and process resource usage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SystemStats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List available models",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/generate": {
            "post": {
                "description": "Sends the prompt as a single user message to the inference backend.\nAn omitted model uses the configured default.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generate"],
                "summary": "Generate a reply",
                "parameters": [
                    {
                        "description": "Prompt and optional model",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/get_chats": {
            "get": {
                "description": "Newest first: ids in descending order, numeric ids compared by value.",
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "List saved chats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/get_chat/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "Get one chat",
                "parameters": [
                    {"type": "string", "description": "Chat id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/save_chat": {
            "post": {
                "description": "The record must carry an \"id\"; all other fields are stored as sent.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "Create or replace a chat",
                "parameters": [
                    {"description": "Chat record", "name": "chat", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OKResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/delete_chat/{id}": {
            "delete": {
                "description": "A trailing \".json\" on the id is ignored.",
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "Delete a chat",
                "parameters": [
                    {"type": "string", "description": "Chat id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OKResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 503},
                "error": {"type": "string", "example": "inference backend unavailable"},
                "kind": {"type": "string", "example": "backend_unavailable"}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "unsloth/Llama-3.2-1B-Instruct"},
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "response": {"type": "string", "example": "Waves fold into foam"}
            }
        },
        "types.OKResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true}
            }
        },
        "types.GlobalStats": {
            "type": "object",
            "properties": {
                "cpu_pct": {"type": "number", "example": 12.5},
                "ram_gb": {"type": "string", "example": "6.8/15.8 GB"},
                "ram_pct": {"type": "number", "example": 43.1},
                "ram_total_bytes": {"type": "integer", "example": 16941129728},
                "ram_used_bytes": {"type": "integer", "example": 7301444608}
            }
        },
        "types.ProcessStats": {
            "type": "object",
            "properties": {
                "cpu_pct": {"type": "number", "example": 0.7},
                "ram_gb": {"type": "string", "example": "0.02 GB"},
                "ram_used_bytes": {"type": "integer", "example": 25165824}
            }
        },
        "types.SystemStats": {
            "type": "object",
            "properties": {
                "global": {"$ref": "#/definitions/types.GlobalStats"},
                "process": {"$ref": "#/definitions/types.ProcessStats"}
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
	Title:            "chatd API",
	Description:      "HTTP backend for a chat UI: generation through an LLM inference server and chat persistence.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
