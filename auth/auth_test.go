// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestNewRobotUID(t *testing.T) {
	uid := NewRobotUID()
	if _, err := uuid.Parse(uid); err != nil {
		t.Errorf("NewRobotUID() = %q is not a UUID: %v", uid, err)
	}
	if uid == NewRobotUID() {
		t.Error("NewRobotUID() produced duplicate uids")
	}
}

func TestVerifier(t *testing.T) {
	v, err := NewVerifier("secret")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	valid, _ := IssueToken("secret", "user-1", time.Hour)
	expired, _ := IssueToken("secret", "user-1", -time.Minute)
	wrongKey, _ := IssueToken("other", "user-1", time.Hour)
	noSubject, _ := IssueToken("secret", "", time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{"valid", valid, "user-1", nil},
		{"empty", "", "", ErrMissingToken},
		{"garbage", "not.a.token", "", ErrInvalidToken},
		{"expired", expired, "", ErrInvalidToken},
		{"wrong key", wrongKey, "", ErrInvalidToken},
		{"no subject", noSubject, "", ErrInvalidToken},
		{"alg none", none, "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.UserID(tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("UserID() error = %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UserID() error = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("UserID() = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Error("NewVerifier(\"\") should fail")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
