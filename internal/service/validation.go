package service

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/good-yellow-bee/synergy/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// inviteLocalRegex is the local-part shape accepted for invitees.
var inviteLocalRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

const minInviteLocalLength = 6

// ValidateEmail validates an email address for registration.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "email is required")
	}
	if len(email) > 255 {
		return invalid("email", "email must be at most 255 characters")
	}
	if !emailRegex.MatchString(email) {
		return invalid("email", "invalid email format")
	}
	return nil
}

// ValidateInviteEmail applies the invitee rule: local@domain with domain
// equal to the allowed suffix, a local part of at least six characters from
// [A-Za-z0-9._-] that starts and ends alphanumeric and has no consecutive
// dots. email must already be normalized.
func ValidateInviteEmail(email, domain string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	suffix := "@" + domain
	if !strings.HasSuffix(email, suffix) {
		return invalid("email", "only "+suffix+" addresses are allowed")
	}

	local := strings.TrimSuffix(email, suffix)
	if !inviteLocalRegex.MatchString(local) || strings.Contains(local, "..") {
		return invalid("email", "invalid "+domain+" address format")
	}
	if len(local) < minInviteLocalLength {
		return invalid("email", "address must have at least 6 characters before @")
	}
	return nil
}

// ValidatePassword checks password complexity: at least 12 characters with
// an uppercase letter, a lowercase letter, a digit and a special character.
// Only the first failing rule is reported.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return invalid("password", "password must be at least 12 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()-_=+[]{}|;:',.<>?/`~\"\\", r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return invalid("password", "password must contain at least 1 uppercase letter")
	case !hasLower:
		return invalid("password", "password must contain at least 1 lowercase letter")
	case !hasDigit:
		return invalid("password", "password must contain at least 1 digit")
	case !hasSpecial:
		return invalid("password", "password must contain at least 1 special character (!@#$%^&*...)")
	}
	return nil
}

func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, field+" is required")
	}
	if len(value) > max {
		return "", invalid(field, field+" is too long")
	}
	return value, nil
}

func parseTaskStatus(s string) (models.TaskStatus, error) {
	status := models.TaskStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", invalid("status", "status must be one of: todo, in_progress, done")
	}
	return status, nil
}

func parsePriority(s string) (models.Priority, error) {
	p := models.Priority(strings.TrimSpace(s))
	if p == "" {
		return models.PriorityMedium, nil
	}
	if !p.Valid() {
		return "", invalid("priority", "priority must be one of: low, medium, high")
	}
	return p, nil
}

func parseRole(s string) (models.MemberRole, error) {
	role := models.MemberRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", invalid("role", "role must be one of: admin, member")
	}
	return role, nil
}

// ParseDueDate accepts "2006-01-02" or RFC 3339. Empty means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		//nolint:nilnil
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid("due_date", "due_date must be YYYY-MM-DD or RFC 3339")
}
