package model

import (
	"strings"
)

// User is the normalized identity exposed to the application
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Initial is the avatar fallback letter: display name, then email, then "U"
func (u User) Initial() string {
	for _, s := range []string{u.DisplayName, u.Email} {
		if s = strings.TrimSpace(s); s != "" {
			return strings.ToUpper(string([]rune(s)[0]))
		}
	}
	return "U"
}

// Name is the display name or "User"
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "User"
}

// AuthResponse is returned by every sign-in style endpoint
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}
