package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account with default notification settings.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	first, err := requireText("first_name", in.FirstName, 100)
	if err != nil {
		return nil, err
	}
	last, err := requireText("last_name", in.LastName, 100)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := models.NewUser(email, first, last)
	user.ID = uuid.New().String()
	user.PasswordHash = string(hash)
	user.CreatedAt, user.UpdatedAt = now, now

	err = s.run(ctx, "register", func(w *work) error {
		existing, err := w.repos.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("email already registered")
		}
		if err := w.repos.Users().Create(ctx, user); err != nil {
			return err
		}
		settings := models.DefaultSettings(user.ID)
		settings.CreatedAt, settings.UpdatedAt = now, now
		return w.repos.Settings().Upsert(ctx, settings)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// errBadCredentials is deliberately the same for unknown emails and wrong
// passwords.
const errBadCredentials = "invalid email or password"

// Authenticate checks an email and password and returns the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, &Error{Kind: KindUnauthenticated, Message: errBadCredentials}
	}

	var user *models.User
	err := s.run(ctx, "authenticate", func(w *work) error {
		var err error
		user, err = w.repos.Users().GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &Error{Kind: KindUnauthenticated, Message: errBadCredentials}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &Error{Kind: KindUnauthenticated, Message: errBadCredentials}
	}
	return user, nil
}

// GetUser returns the user with id. Only the user themselves may read their
// full profile.
func (s *Service) GetUser(ctx context.Context, actor string) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var user *models.User
	err := s.run(ctx, "get user", func(w *work) error {
		var err error
		if user, err = w.repos.Users().GetByID(ctx, actor); err != nil {
			return err
		}
		if user == nil {
			return &Error{Kind: KindUnauthenticated, Message: "account no longer exists"}
		}
		return nil
	})
	return user, err
}

// UpdateDisplayName renames the actor.
func (s *Service) UpdateDisplayName(ctx context.Context, actor, name string) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name, err := requireText("display_name", name, 100)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.run(ctx, "update display name", func(w *work) error {
		var err error
		if user, err = w.repos.Users().GetByID(ctx, actor); err != nil {
			return err
		}
		if user == nil {
			return &Error{Kind: KindUnauthenticated, Message: "account no longer exists"}
		}
		user.DisplayName = name
		user.UpdatedAt = s.now()
		return w.repos.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the actor's password after checking the current
// one, and revokes every refresh token the actor holds.
func (s *Service) ChangePassword(ctx context.Context, actor, current, next string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if current == next {
		return invalid("new_password", "new password must differ from the current one")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.run(ctx, "change password", func(w *work) error {
		user, err := w.repos.Users().GetByID(ctx, actor)
		if err != nil {
			return err
		}
		if user == nil {
			return &Error{Kind: KindUnauthenticated, Message: "account no longer exists"}
		}
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return invalid("current_password", "current password is incorrect")
		}
		if err != nil {
			return fmt.Errorf("compare password: %w", err)
		}

		now := s.now()
		user.PasswordHash = string(hash)
		user.UpdatedAt = now
		if err := w.repos.Users().Update(ctx, user); err != nil {
			return err
		}
		return w.repos.Tokens().RevokeAllForUser(ctx, actor, now)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": actor}).Info("password changed")
	return nil
}

// displayOrEmail is used where a user may have no name yet.
func displayOrEmail(u *models.User) string {
	if name := strings.TrimSpace(u.Name()); name != "" {
		return name
	}
	return u.Email
}
