package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice@Example.COM", "alice@example.com"},
		{"  alice@example.com  ", "alice@example.com"},
		{"alice@example.com", "alice@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserNormalize(t *testing.T) {
	username := "  Alice  "
	u := &User{Email: " Alice@Example.com ", Username: &username}
	u.Normalize()

	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", u.Email)
	}
	if *u.Username != "alice" {
		t.Errorf("username = %q, want alice", *u.Username)
	}
}

func TestIsLocked(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-10 * time.Minute)

	tests := []struct {
		name  string
		until *time.Time
		want  bool
	}{
		{"no lock", nil, false},
		{"lock in the future", &future, true},
		{"lock expired", &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{AccountLockedUntil: tt.until}
			if got := u.IsLocked(); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeStripsSensitiveFields(t *testing.T) {
	hash := "$2a$12$notarealhashbutlookslikeone"
	until := time.Now().Add(time.Hour)
	username := "alice"
	u := &User{
		ID:                  "u1",
		Username:            &username,
		Email:               "alice@example.com",
		PasswordHash:        &hash,
		IsActive:            true,
		FailedLoginAttempts: 3,
		AccountLockedUntil:  &until,
		AuthProvider:        ProviderLocal,
	}

	payload, err := json.Marshal(u.Safe())
	if err != nil {
		t.Fatalf("failed to marshal safe user: %v", err)
	}

	body := string(payload)
	for _, forbidden := range []string{hash, "password", "failed_login", "locked_until"} {
		if strings.Contains(body, forbidden) {
			t.Errorf("safe payload contains %q: %s", forbidden, body)
		}
	}
	if !strings.Contains(body, `"email":"alice@example.com"`) {
		t.Errorf("safe payload missing email: %s", body)
	}
}

func TestUserJSONNeverLeaksHash(t *testing.T) {
	hash := "$2a$12$notarealhashbutlookslikeone"
	u := &User{ID: "u1", Email: "alice@example.com", PasswordHash: &hash, FailedLoginAttempts: 2}

	payload, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("failed to marshal user: %v", err)
	}
	if strings.Contains(string(payload), hash) {
		t.Errorf("user JSON contains the password hash: %s", payload)
	}
}
