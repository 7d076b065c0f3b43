// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (duration_ms).

# Bearer Authentication

RequireUser verifies the Authorization header and stores the user id in
the request context:

	mux.HandleFunc("GET /api/v1/robots/my",
		middleware.WithLogging(middleware.RequireUser(verifier, h.ListMyRobots)))

	userID := middleware.UserID(r.Context())

Missing or invalid tokens get 401 before the handler runs.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type and Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Errors from the store and dispatcher map onto status codes:

	middleware.WriteError(w, err)

	ErrNotFound                       → 404
	ErrForbidden                      → 403
	ErrConflict, ErrInvalidState,
	ErrValidation, ErrEmptyInput      → 400
	ErrDispatch                       → 502
	anything else                     → 500 (logged, no detail)

Parse JSON request bodies:

	var req models.CreateRobotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in the request log.
*/
package middleware
