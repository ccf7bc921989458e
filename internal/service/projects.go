package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// ProjectInput carries the editable project fields.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// ProjectDetail is everything shown on a project page.
type ProjectDetail struct {
	Project   *models.Project         `json:"project"`
	Tasks     []*models.TaskView      `json:"tasks"`
	Members   []*models.ProjectMember `json:"members"`
	Messages  []*models.Message       `json:"messages"`
	CanAdmin  bool                    `json:"can_admin"`
	CanDelete bool                    `json:"can_delete"`
}

func (in *ProjectInput) normalize() error {
	name, err := requireText("name", in.Name, 200)
	if err != nil {
		return err
	}
	in.Name = name
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = models.DefaultProjectColor
	}
	return nil
}

// CreateProject creates a project owned by actor and makes actor its first
// admin member.
func (s *Service) CreateProject(ctx context.Context, actor string, in ProjectInput) (*models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	now := s.now()
	project := models.NewProject(in.Name, in.Description, in.Color, actor)
	project.ID = uuid.New().String()
	project.CreatedAt, project.UpdatedAt = now, now

	err := s.run(ctx, "create project", func(w *work) error {
		if err := w.repos.Projects().Create(ctx, project); err != nil {
			return err
		}
		return w.repos.Members().Add(ctx, project.ID, actor, models.MemberRoleAdmin, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"project_id": project.ID, "user_id": actor}).Info("project created")
	return project, nil
}

// ListProjects returns every project actor can access, most recently
// updated first.
func (s *Service) ListProjects(ctx context.Context, actor string) ([]*models.ProjectSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out []*models.ProjectSummary
	err := s.run(ctx, "list projects", func(w *work) error {
		var err error
		out, err = w.repos.Projects().ListForUser(ctx, actor)
		return err
	})
	return out, err
}

// GetProject returns the project with its tasks, members and recent messages.
func (s *Service) GetProject(ctx context.Context, actor, projectID string) (*ProjectDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	detail := &ProjectDetail{}
	err := s.run(ctx, "get project", func(w *work) error {
		if err := s.requireAccess(ctx, w, actor, projectID); err != nil {
			return err
		}

		var err error
		if detail.Project, err = w.repos.Projects().GetByID(ctx, projectID); err != nil {
			return err
		}
		if detail.Tasks, err = w.repos.Tasks().ListByProject(ctx, projectID); err != nil {
			return err
		}
		if detail.Members, err = w.repos.Members().List(ctx, projectID); err != nil {
			return err
		}
		if detail.Messages, err = w.repos.Messages().ListByProject(ctx, projectID, s.cfg.MessageHistory); err != nil {
			return err
		}
		if detail.CanAdmin, err = w.access.HasAdminAccess(ctx, actor, projectID); err != nil {
			return err
		}
		detail.CanDelete, err = w.access.CanDeleteProject(ctx, actor, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateProject changes name, description and color. Requires admin access.
func (s *Service) UpdateProject(ctx context.Context, actor, projectID string, in ProjectInput) (*models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.run(ctx, "update project", func(w *work) error {
		if err := s.requireAdmin(ctx, w, actor, projectID); err != nil {
			return err
		}

		var err error
		project, err = w.repos.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		project.Name = in.Name
		project.Description = in.Description
		project.Color = in.Color
		project.UpdatedAt = s.now()
		return w.repos.Projects().Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes the project and everything in it. Only the creator
// may do this. Dependents go first: task-scoped messages, project messages,
// tasks, memberships, then the project row.
func (s *Service) DeleteProject(ctx context.Context, actor, projectID string) (*models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.run(ctx, "delete project", func(w *work) error {
		ok, err := w.access.CanDeleteProject(ctx, actor, projectID)
		if err != nil {
			return err
		}
		if !ok {
			s.deny("delete_project", actor, projectID)
			return denied("only the project creator can delete this project")
		}

		if project, err = w.repos.Projects().GetByID(ctx, projectID); err != nil {
			return err
		}

		steps := []func(context.Context, string) error{
			w.repos.Messages().DeleteTaskScoped,
			w.repos.Messages().DeleteByProject,
			w.repos.Tasks().DeleteByProject,
			w.repos.Members().DeleteByProject,
			w.repos.Projects().Delete,
		}
		for _, step := range steps {
			if err := step(ctx, projectID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"project_id": projectID, "user_id": actor}).Info("project deleted")
	return project, nil
}
