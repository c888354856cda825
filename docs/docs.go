// Package docs holds the OpenAPI document served at /openapi.json. It follows
// the swag output layout; keep it in step with the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RootResponse"}}
                }
            }
        },
        "/api/v1/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "List own tasks, newest first",
                "parameters": [
                    {"type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Filter by priority", "name": "priority", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TaskListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Create a task",
                "parameters": [
                    {"description": "Task", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tasks/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Get one task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Task"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Partial update; omitted fields are left unchanged. \"duedate\": null clears the due date.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Update a task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UpdateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/change-password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change password",
                "parameters": [
                    {"description": "Current and new password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/login": {
            "post": {
                "description": "Sets accessToken and refreshToken cookies; tokens are also returned in the body.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Login",
                "parameters": [
                    {"description": "Email or username, and password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Clears the stored refresh token and both token cookies.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuthLogoutResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/refresh": {
            "post": {
                "description": "Uses the refreshToken cookie, or the refreshToken body field when the cookie is absent.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"description": "Refresh token for non-cookie clients", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/v1/users/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Account details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/openapi.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "OpenAPI document",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PingResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.AuthLogoutResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "model.AuthResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "refreshToken": {"type": "string"},
                "user": {"$ref": "#/definitions/model.AuthUser"}
            }
        },
        "model.AuthUser": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "fullname": {"type": "string"},
                "id": {"type": "integer"},
                "updatedAt": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.ChangePasswordRequest": {
            "type": "object",
            "required": ["newPassword", "oldPassword"],
            "properties": {
                "newPassword": {"type": "string"},
                "oldPassword": {"type": "string"}
            }
        },
        "model.CreateTaskRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "duedate": {"type": "string"},
                "priority": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.PingResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "model.RefreshRequest": {
            "type": "object",
            "properties": {"refreshToken": {"type": "string"}}
        },
        "model.RegisterRequest": {
            "type": "object",
            "required": ["email", "fullname", "password", "username"],
            "properties": {
                "email": {"type": "string"},
                "fullname": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.RootResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "model.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "model.Task": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "duedate": {"type": "string"},
                "id": {"type": "string"},
                "owner": {"type": "integer"},
                "priority": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.TaskListResponse": {
            "type": "object",
            "properties": {
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}}
            }
        },
        "model.UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "duedate": {"type": "string"},
                "priority": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "model.UserResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/model.AuthUser"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "taskTracker API",
	Description:      "Per-user task tracker with cookie or bearer token sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
