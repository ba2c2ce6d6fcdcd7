// ABOUTME: Auth request/response models for the BFF session pattern
// ABOUTME: Defines the server-side session and the remote login contract

package models

import "time"

// LoginRequest represents credentials posted to the remote API
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the remote API's answer to POST /users/login
type LoginResult struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	RoleID   string `json:"roleId"`
}

// Complete reports whether every field needed to open a session is present.
func (l LoginResult) Complete() bool {
	return l.Token != "" && l.UserID != "" && l.Username != "" && l.RoleID != ""
}

// Session stores server-side authentication state.
// The bearer token is never exposed to the browser.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	RoleID    string    `json:"role_id"`
	CSRFToken string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// HasToken reports whether the session can authenticate API calls.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}
