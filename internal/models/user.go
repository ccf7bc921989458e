package models

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new User with initialized timestamps.
// The display name defaults to "First Last".
func NewUser(email, firstName, lastName string) *User {
	now := time.Now()
	return &User{
		Email:       NormalizeEmail(email),
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		DisplayName: strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Name returns the display name, falling back to first and last name.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NamesFromEmail derives display, first and last names from the local part
// of an email address: "jane.doe_x@host" becomes "Jane Doe X".
func NamesFromEmail(email string) (display, first, last string) {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)

	parts := strings.Fields(local)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	if len(parts) == 0 {
		return "User", "User", ""
	}
	return strings.Join(parts, " "), parts[0], strings.Join(parts[1:], " ")
}
