// ABOUTME: Role and user models for the admin screens
// ABOUTME: Handles the API's mixed _id/id and string/object role encodings

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NoRoleName is shown for users whose role does not resolve.
const NoRoleName = "No Role"

// RolePermission grants a role the actions on one page
type RolePermission struct {
	PageID  string  `json:"pageId"`
	Actions Actions `json:"actions"`
}

// Role is a named bundle of per-page permissions
type Role struct {
	ID              string           `json:"-"`
	Name            string           `json:"name"`
	PagePermissions []RolePermission `json:"pagePermissions"`
}

func (r *Role) UnmarshalJSON(data []byte) error {
	type alias Role
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Role(a)
	r.ID = objectID(raw)
	return nil
}

// Permission returns the role's permission entry for pageID, if any.
func (r Role) Permission(pageID string) (RolePermission, bool) {
	for _, p := range r.PagePermissions {
		if p.PageID == pageID {
			return p, true
		}
	}
	return RolePermission{}, false
}

// User is an account managed from the Users screen
type User struct {
	ID       string `json:"-"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   string `json:"-"`
	RoleName string `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var doc struct {
		Username string          `json:"username"`
		Email    string          `json:"email"`
		Role     json.RawMessage `json:"role"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{ID: objectID(raw), Username: doc.Username, Email: doc.Email}

	// role is null, the role id, or a populated {_id, name} document
	role := bytes.TrimSpace(doc.Role)
	switch {
	case len(role) == 0 || bytes.Equal(role, []byte("null")):
	case role[0] == '"':
		if err := json.Unmarshal(role, &u.RoleID); err != nil {
			return fmt.Errorf("user %s role: %w", u.ID, err)
		}
	default:
		var r Role
		if err := json.Unmarshal(role, &r); err != nil {
			return fmt.Errorf("user %s role: %w", u.ID, err)
		}
		u.RoleID, u.RoleName = r.ID, r.Name
	}
	return nil
}

// UserInput is the body sent when creating or updating a user.
// Password is omitted on update when left blank.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

// Validate returns the first missing required field, if any.
func (u UserInput) Validate(creating bool) string {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return "username is required"
	case strings.TrimSpace(u.Email) == "":
		return "email is required"
	case u.Role == "":
		return "role is required"
	case creating && u.Password == "":
		return "password is required"
	}
	return ""
}

// JoinRoleNames fills RoleName on each user from the fetched roles.
func JoinRoleNames(users []User, roles []Role) []User {
	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	out := make([]User, len(users))
	for i, u := range users {
		if name, ok := names[u.RoleID]; ok {
			u.RoleName = name
		} else {
			u.RoleName = NoRoleName
		}
		out[i] = u
	}
	return out
}
