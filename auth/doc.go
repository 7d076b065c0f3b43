// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers and bearer token checks.

# Bearer Tokens

Users sign in with the account service, which issues HS256 JWTs whose
"sub" claim is the user id. The API only verifies them:

	v, err := auth.NewVerifier(cfg.JWTSecret)
	userID, err := v.UserID(auth.BearerToken(r.Header.Get("Authorization")))

Only HS256 is accepted; expired tokens and tokens without a subject are
rejected with ErrInvalidToken. IssueToken mints tokens for local tooling
and tests.

# Robot UIDs

Each robot gets a random UUID at registration:

	uid := auth.NewRobotUID()

The uid names the robot's broker topics (robot/{uid}/access/...), so it is
never derived from anything a user chooses.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
