package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// AddMemberResult describes a successful invite.
type AddMemberResult struct {
	Member      *models.User `json:"member"`
	Provisioned bool         `json:"provisioned"`
	// TemporaryPassword is set only when the account was created by this
	// invite. It is shown once to the inviting admin and never stored.
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// ListMembers returns the project's members in join order.
func (s *Service) ListMembers(ctx context.Context, actor, projectID string) ([]*models.ProjectMember, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out []*models.ProjectMember
	err := s.run(ctx, "list members", func(w *work) error {
		if err := s.requireAccess(ctx, w, actor, projectID); err != nil {
			return err
		}
		var err error
		out, err = w.repos.Members().List(ctx, projectID)
		return err
	})
	return out, err
}

// AddMember adds the user with the given email to the project as a plain
// member, creating the account first if none exists. Requires admin access.
func (s *Service) AddMember(ctx context.Context, actor, projectID, email string) (*AddMemberResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	if err := ValidateInviteEmail(email, s.cfg.InviteDomain); err != nil {
		return nil, err
	}

	result := &AddMemberResult{}
	err := s.run(ctx, "add member", func(w *work) error {
		if err := s.requireAdmin(ctx, w, actor, projectID); err != nil {
			return err
		}

		project, err := w.repos.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}

		user, err := w.repos.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			user, result.TemporaryPassword, err = s.provisionUser(ctx, w, email)
			if err != nil {
				return err
			}
			result.Provisioned = true
		}
		result.Member = user

		if project.IsCreator(user.ID) {
			return conflict("user is the project creator")
		}
		role, err := w.repos.Members().GetRole(ctx, projectID, user.ID)
		if err != nil {
			return err
		}
		if role != "" {
			return conflict("user is already a project member")
		}

		if err := w.repos.Members().Add(ctx, projectID, user.ID, models.MemberRoleMember, s.now()); err != nil {
			return err
		}

		if result.Provisioned {
			w.notify(&models.Notification{
				UserID:      user.ID,
				Title:       "Welcome to Synergy!",
				Message:     fmt.Sprintf("You have been added to the project %q. Sign in with your email address and the temporary password your project admin shared with you.", project.Name),
				Kind:        models.NotificationSuccess,
				ProjectID:   projectID,
				ProjectName: project.Name,
			})
		} else {
			w.notify(&models.Notification{
				UserID:      user.ID,
				Title:       "Added to Project",
				Message:     fmt.Sprintf("You have been added to the project %q", project.Name),
				Kind:        models.NotificationInfo,
				ProjectID:   projectID,
				ProjectName: project.Name,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"project_id":  projectID,
		"user_id":     result.Member.ID,
		"provisioned": result.Provisioned,
	}).Info("member added")
	return result, nil
}

// provisionUser creates an account for an invitee with a random one-time
// password and default settings.
func (s *Service) provisionUser(ctx context.Context, w *work, email string) (*models.User, string, error) {
	password, err := models.RandomToken(12)
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	display, first, last := models.NamesFromEmail(email)
	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    first,
		LastName:     last,
		DisplayName:  display,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := w.repos.Users().Create(ctx, user); err != nil {
		return nil, "", err
	}

	settings := models.DefaultSettings(user.ID)
	settings.CreatedAt, settings.UpdatedAt = now, now
	if err := w.repos.Settings().Upsert(ctx, settings); err != nil {
		return nil, "", err
	}
	return user, password, nil
}

// RemoveMember removes a member from the project and unassigns their tasks
// there. Requires admin access; the project creator can never be removed.
func (s *Service) RemoveMember(ctx context.Context, actor, projectID, memberID string) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var member *models.User
	err := s.run(ctx, "remove member", func(w *work) error {
		if err := s.requireAdmin(ctx, w, actor, projectID); err != nil {
			return err
		}

		owner, err := w.repos.Projects().Owner(ctx, projectID)
		if err != nil {
			return err
		}
		if owner == memberID {
			return conflict("cannot remove the project creator")
		}

		if member, err = w.repos.Users().GetByID(ctx, memberID); err != nil {
			return err
		}
		if member == nil {
			return notFound("member not found")
		}

		removed, err := w.repos.Members().Remove(ctx, projectID, memberID)
		if err != nil {
			return err
		}
		if !removed {
			return notFound("user is not a member of this project")
		}

		_, err = w.repos.Tasks().UnassignUser(ctx, projectID, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"project_id": projectID, "user_id": memberID}).Info("member removed")
	return member, nil
}

// SetMemberRole changes a member's role. Requires admin access; the
// creator's own row is fixed.
func (s *Service) SetMemberRole(ctx context.Context, actor, projectID, memberID, role string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	r, err := parseRole(role)
	if err != nil {
		return err
	}

	return s.run(ctx, "set member role", func(w *work) error {
		if err := s.requireAdmin(ctx, w, actor, projectID); err != nil {
			return err
		}

		owner, err := w.repos.Projects().Owner(ctx, projectID)
		if err != nil {
			return err
		}
		if owner == memberID {
			return conflict("the project creator's role cannot be changed")
		}

		current, err := w.repos.Members().GetRole(ctx, projectID, memberID)
		if err != nil {
			return err
		}
		if current == "" {
			return notFound("user is not a member of this project")
		}
		return w.repos.Members().SetRole(ctx, projectID, memberID, r)
	})
}
