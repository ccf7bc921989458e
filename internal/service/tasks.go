package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// TaskInput carries the editable task fields. DueDate is "YYYY-MM-DD",
// RFC 3339 or empty. ProjectID is only checked on update, where it must be
// empty or the task's current project.
type TaskInput struct {
	ProjectID   string `json:"project_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

// TaskResult is a task together with the status of its project after the
// operation.
type TaskResult struct {
	Task   *models.Task `json:"task"`
	Status StatusChange `json:"status"`
}

func (in TaskInput) apply(t *models.Task) error {
	title, err := requireText("title", in.Title, 200)
	if err != nil {
		return err
	}
	priority, err := parsePriority(in.Priority)
	if err != nil {
		return err
	}
	due, err := ParseDueDate(in.DueDate)
	if err != nil {
		return err
	}
	t.Title = title
	t.Description = strings.TrimSpace(in.Description)
	t.AssignedTo = strings.TrimSpace(in.AssignedTo)
	t.Priority = priority
	t.DueDate = due
	return nil
}

// checkAssignee requires a non-empty assignee to have access to the project.
func (s *Service) checkAssignee(ctx context.Context, w *work, projectID, assignee string) error {
	if assignee == "" {
		return nil
	}
	ok, err := w.access.HasAccess(ctx, assignee, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("assigned_to", "assignee must be a member of the project")
	}
	return nil
}

// notifyAssignee queues an assignment notification unless the actor
// assigned the task to themselves.
func (w *work) notifyAssignee(ctx context.Context, actor string, task *models.Task) error {
	if task.AssignedTo == "" || task.AssignedTo == actor {
		return nil
	}
	project, err := w.repos.Projects().GetByID(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	w.notify(&models.Notification{
		UserID:      task.AssignedTo,
		Title:       "New Task Assigned",
		Message:     fmt.Sprintf("You have been assigned a new task %q in project %q", task.Title, project.Name),
		Kind:        models.NotificationInfo,
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		ProjectName: project.Name,
		TaskTitle:   task.Title,
	})
	return nil
}

// CreateTask adds a task to the project and recomputes the project status.
func (s *Service) CreateTask(ctx context.Context, actor, projectID string, in TaskInput) (*TaskResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	now := s.now()
	task := models.NewTask(projectID, "", actor)
	task.ID = uuid.New().String()
	task.CreatedAt, task.UpdatedAt = now, now
	if err := in.apply(task); err != nil {
		return nil, err
	}

	result := &TaskResult{Task: task}
	err := s.run(ctx, "create task", func(w *work) error {
		if err := s.requireAccess(ctx, w, actor, projectID); err != nil {
			return err
		}
		if err := s.checkAssignee(ctx, w, projectID, task.AssignedTo); err != nil {
			return err
		}
		if err := w.repos.Tasks().Create(ctx, task); err != nil {
			return err
		}
		if err := w.notifyAssignee(ctx, actor, task); err != nil {
			return err
		}

		var err error
		result.Status, err = s.recompute(ctx, w, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "project_id": projectID}).Debug("task created")
	return result, nil
}

// GetTask returns a task actor can access.
func (s *Service) GetTask(ctx context.Context, actor, taskID string) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var task *models.Task
	err := s.run(ctx, "get task", func(w *work) error {
		var err error
		task, err = s.loadTask(ctx, w, actor, taskID)
		return err
	})
	return task, err
}

// UpdateTask edits title, description, assignee, priority and due date.
// Status is untouched, so the project status is not recomputed. A task never
// moves to another project.
func (s *Service) UpdateTask(ctx context.Context, actor, taskID string, in TaskInput) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.run(ctx, "update task", func(w *work) error {
		var err error
		if task, err = s.loadTask(ctx, w, actor, taskID); err != nil {
			return err
		}
		if in.ProjectID != "" && in.ProjectID != task.ProjectID {
			return invalid("project_id", "tasks cannot be moved to another project")
		}

		previous := task.AssignedTo
		if err := in.apply(task); err != nil {
			return err
		}
		if err := s.checkAssignee(ctx, w, task.ProjectID, task.AssignedTo); err != nil {
			return err
		}
		task.UpdatedAt = s.now()
		if err := w.repos.Tasks().Update(ctx, task); err != nil {
			return err
		}
		if task.AssignedTo != previous {
			return w.notifyAssignee(ctx, actor, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTaskStatus sets the task status and recomputes the project status.
func (s *Service) UpdateTaskStatus(ctx context.Context, actor, taskID, status string) (*TaskResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	st, err := parseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	result := &TaskResult{}
	err = s.run(ctx, "update task status", func(w *work) error {
		task, err := s.loadTask(ctx, w, actor, taskID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := w.repos.Tasks().SetStatus(ctx, task.ID, st, now); err != nil {
			return err
		}
		task.Status, task.UpdatedAt = st, now
		result.Task = task

		result.Status, err = s.recompute(ctx, w, task.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTaskPriority changes only the priority. The project row is not
// written.
func (s *Service) UpdateTaskPriority(ctx context.Context, actor, taskID, priority string) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p := models.Priority(strings.TrimSpace(priority))
	if !p.Valid() {
		return nil, invalid("priority", "priority must be one of: low, medium, high")
	}

	var task *models.Task
	err := s.run(ctx, "update task priority", func(w *work) error {
		var err error
		if task, err = s.loadTask(ctx, w, actor, taskID); err != nil {
			return err
		}
		now := s.now()
		if err := w.repos.Tasks().SetPriority(ctx, task.ID, p, now); err != nil {
			return err
		}
		task.Priority, task.UpdatedAt = p, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and its messages, then recomputes the project
// status over the remaining tasks. Allowed for the task creator, the project
// creator and project admins.
func (s *Service) DeleteTask(ctx context.Context, actor, taskID string) (*TaskResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	result := &TaskResult{}
	err := s.run(ctx, "delete task", func(w *work) error {
		task, err := s.loadTask(ctx, w, actor, taskID)
		if err != nil {
			return err
		}
		ok, err := w.access.CanDeleteTask(ctx, actor, task)
		if err != nil {
			return err
		}
		if !ok {
			s.deny("delete_task", actor, task.ProjectID)
			return denied("only the task creator or a project admin can delete this task")
		}

		if err := w.repos.Messages().DeleteByTask(ctx, task.ID); err != nil {
			return err
		}
		if err := w.repos.Tasks().Delete(ctx, task.ID); err != nil {
			return err
		}
		result.Task = task

		result.Status, err = s.recompute(ctx, w, task.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": taskID, "user_id": actor}).Info("task deleted")
	return result, nil
}

// MyTasks returns the tasks assigned to actor across all projects, ordered
// by status, then due date with undated tasks last, then newest first.
func (s *Service) MyTasks(ctx context.Context, actor string) ([]*models.TaskView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var tasks []*models.TaskView
	err := s.run(ctx, "my tasks", func(w *work) error {
		var err error
		tasks, err = w.repos.Tasks().ListAssignedTo(ctx, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return models.LessForDisplay(&tasks[i].Task, &tasks[j].Task)
	})
	return tasks, nil
}
