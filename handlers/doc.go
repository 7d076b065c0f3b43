// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the servo-sync API.

# Handler Types

Each handler is a struct over the store (and, for robots, the dispatcher):

  - RobotHandler: Robot CRUD, commands and on-robot storage
  - ServoGroupHandler: Servo groups ranked within a column
  - MovementHandler: Movements and their grid coordinates
  - PositionHandler: Positions ranked within a movement

	robotHandler := handlers.NewRobotHandler(store, dispatcher)
	positionHandler := handlers.NewPositionHandler(store)

# Authorization

Routes run behind middleware.RequireUser. Before touching anything, a
handler checks that the caller owns the robot the request ends up on,
through store.Ownership:

	if !authorize(w, r, h.store.Ownership.Movement, movementID) {
		return
	}

A missing resource is 404 and someone else's is 403.

# Ordering

Servo groups and positions carry a dense sequence 1..n. Create appends,
delete compacts, and the increase/decrease routes swap an item with its
neighbour:

	PUT /positions/{id}/increase → sequence + 1 (400 at the end)
	PUT /positions/{id}/decrease → sequence - 1 (400 at 1)

# Commands

Robot commands are published to robot/{uid}/access/positions and only
then recorded as the robot's current position. If the broker does not
take the message the response is 502 and nothing is written.

	POST /robots/{id}/movements/{movementId}/execute → every position, in order
	POST /robots/{id}/positions/{positionId}/move    → one position

The storage routes copy movements and the initial position onto the
robot (robot/{uid}/access/storage/...) and write nothing locally.

# Error Responses

Store and dispatcher errors go through middleware.WriteError:

	{"error": "Bad Request", "message": "conflict: movement name \"wave\" already exists on this robot"}

Status codes:
  - 400: Invalid JSON, validation, limits, duplicates, sequence at a boundary
  - 401: Missing or invalid bearer token
  - 403: Resource belongs to another user
  - 404: Resource not found
  - 502: Broker did not accept the command
  - 500: Database error
*/
package handlers
