// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the servo-sync API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, dispatcher, verifier)

Every route under /api/v1 is wrapped in WithLogging and RequireUser, so
handlers can rely on middleware.UserID.

# Endpoints

Public:

	GET /health - Liveness
	GET /       - Banner

Robots:

	POST   /api/v1/robots             - Register robot
	GET    /api/v1/robots/my          - Caller's robots
	GET    /api/v1/robots/{id}        - Robot by id
	GET    /api/v1/robots/uuid/{uid}  - Robot by broker uid
	PUT    /api/v1/robots/{id}        - Rename / describe
	DELETE /api/v1/robots/{id}        - Delete with everything under it

Robot commands (publish, then record the current position):

	POST /api/v1/robots/{id}/move/initial-position              - Go to initial position
	PUT  /api/v1/robots/{id}/move/initial-position              - Set it, then go there
	PUT  /api/v1/robots/{id}/move/current-position              - Go to an arbitrary pose
	POST /api/v1/robots/{id}/movements/{movementId}/execute     - Run a movement
	POST /api/v1/robots/{id}/positions/{positionId}/move        - Go to one position

On-robot storage (publish only):

	PUT    /api/v1/robots/{id}/storage/movements/{movementId}
	DELETE /api/v1/robots/{id}/storage/movements/{movementId}
	PUT    /api/v1/robots/{id}/storage/initial-position
	DELETE /api/v1/robots/{id}/storage

Servo groups, movements and positions:

	POST   /api/v1/servo-groups
	GET    /api/v1/servo-groups/robot/{id}
	PUT    /api/v1/servo-groups/{id}
	PUT    /api/v1/servo-groups/{id}/increase
	PUT    /api/v1/servo-groups/{id}/decrease
	DELETE /api/v1/servo-groups/{id}

	POST   /api/v1/movements
	GET    /api/v1/movements/robot/{id}
	GET    /api/v1/movements/{id}
	PUT    /api/v1/movements/{id}
	DELETE /api/v1/movements/{id}

	POST   /api/v1/positions
	GET    /api/v1/positions/movement/{id}
	PUT    /api/v1/positions/{id}
	PUT    /api/v1/positions/{id}/increase
	PUT    /api/v1/positions/{id}/decrease
	DELETE /api/v1/positions/{id}

List routes live under the child resource: GET /robots/uuid/{uid} and
GET /robots/{id}/movements would match the same paths and ServeMux
refuses to register both.
*/
package router
