package service

import (
	"context"
	"sort"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// TeamProject is a project shared with a team member.
type TeamProject struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Role      models.MemberRole `json:"role"`
	CanRemove bool              `json:"can_remove"`
}

// TeamMember summarizes one person across the actor's projects.
type TeamMember struct {
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	DisplayName string             `json:"display_name"`
	Todo        int                `json:"todo_tasks"`
	InProgress  int                `json:"in_progress_tasks"`
	Done        int                `json:"done_tasks"`
	Total       int                `json:"total_tasks"`
	Projects    []TeamProject      `json:"projects"`
	RecentTasks []*models.TaskView `json:"recent_tasks"`
}

const teamRecentTasks = 5

// TeamOverview lists every member of the projects actor can access, with
// counts of the tasks assigned to them there. CanRemove marks the projects
// from which actor may remove that member.
func (s *Service) TeamOverview(ctx context.Context, actor string) ([]*TeamMember, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	byUser := make(map[string]*TeamMember)
	err := s.run(ctx, "team overview", func(w *work) error {
		projects, err := w.repos.Projects().ListForUser(ctx, actor)
		if err != nil {
			return err
		}

		for _, p := range projects {
			members, err := w.repos.Members().List(ctx, p.ID)
			if err != nil {
				return err
			}
			tasks, err := w.repos.Tasks().ListByProject(ctx, p.ID)
			if err != nil {
				return err
			}
			isAdmin, err := w.access.HasAdminAccess(ctx, actor, p.ID)
			if err != nil {
				return err
			}

			for _, m := range members {
				tm, ok := byUser[m.UserID]
				if !ok {
					tm = &TeamMember{UserID: m.UserID, Email: m.Email, DisplayName: m.DisplayName}
					if tm.DisplayName == "" {
						tm.DisplayName = displayOrEmail(&models.User{Email: m.Email, FirstName: m.FirstName, LastName: m.LastName})
					}
					byUser[m.UserID] = tm
				}
				tm.Projects = append(tm.Projects, TeamProject{
					ID:        p.ID,
					Name:      p.Name,
					Role:      m.Role,
					CanRemove: isAdmin && !p.IsCreator(m.UserID) && m.UserID != actor,
				})
			}

			for _, t := range tasks {
				tm, ok := byUser[t.AssignedTo]
				if !ok {
					continue
				}
				tm.Total++
				switch t.Status {
				case models.TaskTodo:
					tm.Todo++
				case models.TaskInProgress:
					tm.InProgress++
				case models.TaskDone:
					tm.Done++
				}
				tm.RecentTasks = append(tm.RecentTasks, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*TeamMember, 0, len(byUser))
	for _, tm := range byUser {
		sort.SliceStable(tm.RecentTasks, func(i, j int) bool {
			return tm.RecentTasks[i].UpdatedAt.After(tm.RecentTasks[j].UpdatedAt)
		})
		if len(tm.RecentTasks) > teamRecentTasks {
			tm.RecentTasks = tm.RecentTasks[:teamRecentTasks]
		}
		sort.Slice(tm.Projects, func(i, j int) bool { return tm.Projects[i].Name < tm.Projects[j].Name })
		out = append(out, tm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
