// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/servo-sync-project/servo-sync-api/middleware"
)

// ownerCheck is one of the store.Ownership methods.
type ownerCheck func(ctx context.Context, userID, id string) error

// authorize runs check for the calling user and writes the error response
// when it fails.
func authorize(w http.ResponseWriter, r *http.Request, check ownerCheck, id string) bool {
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return false
	}
	if err := check(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		middleware.WriteError(w, err)
		return false
	}
	return true
}
