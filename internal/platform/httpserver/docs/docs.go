// Package docs holds the generated OpenAPI document served by the swagger UI.
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
        "/api/decision/v1/delegations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["delegations"],
                "summary": "List the caller's delegations",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Caller identity",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/DelegationListResponse"}
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["delegations"],
                "summary": "Create a delegation from the caller to a leader",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Caller identity",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key",
                        "name": "Idempotency-Key",
                        "in": "header",
                        "required": true
                    },
                    {
                        "description": "Delegation payload",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateDelegationRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/DelegationResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "422": {
                        "description": "Unprocessable Entity",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/api/decision/v1/delegations/{delegation_id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["delegations"],
                "summary": "Revoke a delegation owned by the caller",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Caller identity",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Delegation identifier",
                        "name": "delegation_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/api/decision/v1/polls/{poll_id}/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Submit a vote and propagate it through delegations",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Caller identity",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key",
                        "name": "Idempotency-Key",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Poll identifier",
                        "name": "poll_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Vote payload",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SubmitVoteRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/SubmitVoteResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/api/decision/v1/polls/{poll_id}/votes/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Fetch the caller's vote on a poll",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Caller identity",
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Poll identifier",
                        "name": "poll_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/VoteResponse"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/api/decision/v1/polls/{poll_id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Tally poll results split by direct and inherited votes",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Poll identifier",
                        "name": "poll_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/PollResultsResponse"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateDelegationRequest": {
            "type": "object",
            "properties": {
                "leader_id": {"type": "string"},
                "category_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DelegationResponse": {
            "type": "object",
            "properties": {
                "delegation_id": {"type": "string"},
                "follower_id": {"type": "string"},
                "leader_id": {"type": "string"},
                "category_ids": {"type": "array", "items": {"type": "string"}},
                "global": {"type": "boolean"},
                "replayed": {"type": "boolean"}
            }
        },
        "DelegationListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/DelegationResponse"}}
            }
        },
        "SubmitVoteRequest": {
            "type": "object",
            "properties": {
                "choice_id": {"type": "string"},
                "delegate_id": {"type": "string"}
            }
        },
        "VoteResponse": {
            "type": "object",
            "properties": {
                "vote_id": {"type": "string"},
                "poll_id": {"type": "string"},
                "user_id": {"type": "string"},
                "choice_id": {"type": "string"},
                "delegate_id": {"type": "string"},
                "direct": {"type": "boolean"}
            }
        },
        "SubmitVoteResponse": {
            "type": "object",
            "properties": {
                "vote": {"$ref": "#/definitions/VoteResponse"},
                "propagated": {"type": "array", "items": {"$ref": "#/definitions/VoteResponse"}},
                "was_update": {"type": "boolean"},
                "replayed": {"type": "boolean"}
            }
        },
        "PollResultsResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "total_votes": {"type": "integer"},
                "tallies": {"type": "array", "items": {"$ref": "#/definitions/ChoiceTallyItem"}}
            }
        },
        "ChoiceTallyItem": {
            "type": "object",
            "properties": {
                "choice_id": {"type": "string"},
                "name": {"type": "string"},
                "direct": {"type": "integer"},
                "inherited": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LiquidVote Decision API",
	Description:      "Delegative voting API with delegation management, vote submission and propagation, and poll results.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
