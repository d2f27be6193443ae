package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Server is running"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "description": "Ready once the tea collection can be read from the configured backend",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Storage is readable"
                    },
                    "503": {
                        "description": "Storage is not readable"
                    }
                }
            }
        },
        "/api/v1/teas": {
            "get": {
                "tags": ["teas"],
                "summary": "List teas",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "All teas in stored order",
                        "schema": {
                            "$ref": "#/definitions/http.ListResponse"
                        }
                    },
                    "500": {
                        "description": "Storage could not be read",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "tags": ["teas"],
                "summary": "Create or update a tea",
                "description": "Creates a tea, or replaces the description of the tea with the same name",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "tea",
                        "description": "Tea to upsert",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ports.AddTeaRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Tea saved",
                        "schema": {
                            "$ref": "#/definitions/ports.AddTeaResult"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Name or id already used by another tea",
                        "schema": {
                            "$ref": "#/definitions/ports.AddTeaResult"
                        }
                    },
                    "500": {
                        "description": "Storage could not be read or written",
                        "schema": {
                            "$ref": "#/definitions/ports.AddTeaResult"
                        }
                    }
                }
            }
        },
        "/api/v1/teas/{name}": {
            "get": {
                "tags": ["teas"],
                "summary": "Get a tea by name",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Exact tea name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Tea",
                        "schema": {
                            "$ref": "#/definitions/entities.Tea"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "No tea with that name",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "entities.Tea": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer",
                    "format": "int64"
                },
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                }
            }
        },
        "ports.AddTeaRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {
                    "type": "string",
                    "maxLength": 200
                },
                "description": {
                    "type": "string",
                    "maxLength": 2000
                }
            }
        },
        "ports.AddTeaResult": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "tea": {
                    "$ref": "#/definitions/entities.Tea"
                },
                "error_kind": {
                    "type": "string",
                    "enum": ["name_conflict", "id_conflict", "parse", "io"]
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                }
            }
        },
        "http.ListResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/entities.Tea"
                    }
                },
                "total": {
                    "type": "integer"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "TeaMaster API",
	Description:      "Upsert and look up tea records by name",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
