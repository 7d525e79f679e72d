// Package docs registers the swagger document served at /swagger/.
// Regenerate with: swag init -g docs/swagger_ride.go --instanceName ride
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/rides": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Request a ride",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateRideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            },
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "List rides",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/rides/{ride_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Ride details",
                "parameters": [{"type": "string", "name": "ride_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/rides/{ride_id}/accept": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Accept a ride",
                "parameters": [
                    {"type": "string", "name": "ride_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AcceptRideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/rides/{ride_id}/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Start a ride",
                "parameters": [{"type": "string", "name": "ride_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/rides/{ride_id}/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Complete a ride",
                "parameters": [{"type": "string", "name": "ride_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/rides/{ride_id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rides"],
                "summary": "Cancel a ride",
                "parameters": [
                    {"type": "string", "name": "ride_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CancelRideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RideResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["WebSocket"],
                "summary": "WebSocket endpoint",
                "parameters": [
                    {"type": "string", "name": "token", "in": "query"},
                    {"type": "string", "name": "userId", "in": "query"}
                ],
                "responses": {"101": {"description": "switching protocols"}}
            }
        }
    },
    "definitions": {
        "dto.LocationRequest": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "address": {"type": "string"}
            }
        },
        "dto.CreateRideRequest": {
            "type": "object",
            "properties": {
                "pickup": {"$ref": "#/definitions/dto.LocationRequest"},
                "dropoff": {"$ref": "#/definitions/dto.LocationRequest"}
            }
        },
        "dto.AcceptRideRequest": {
            "type": "object",
            "properties": {"vehicle_id": {"type": "string"}}
        },
        "dto.CancelRideRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "dto.RideResponse": {
            "type": "object",
            "properties": {
                "ride_id": {"type": "string"},
                "rider_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "vehicle_id": {"type": "string"},
                "status": {"type": "string"},
                "pickup": {"$ref": "#/definitions/dto.LocationRequest"},
                "dropoff": {"$ref": "#/definitions/dto.LocationRequest"},
                "estimated_fare": {"type": "number"},
                "fare": {"type": "number"},
                "distance_km": {"type": "number"},
                "cancelled_by": {"type": "string"},
                "cancellation_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "accepted_at": {"type": "string"},
                "started_at": {"type": "string"},
                "completed_at": {"type": "string"},
                "cancelled_at": {"type": "string"}
            }
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
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ride Realtime API",
	Description:      "Ride lifecycle with real-time status and driver location events over WebSocket.",
	InfoInstanceName: "ride",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
