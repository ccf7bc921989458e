package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/synergy/internal/models"
)

// MessageInput is a new chat message. TaskID optionally scopes it to one of
// the project's tasks.
type MessageInput struct {
	Content string `json:"content"`
	TaskID  string `json:"task_id,omitempty"`
}

// SendMessage posts a message to the project and notifies everyone else with
// access to it.
func (s *Service) SendMessage(ctx context.Context, actor, projectID string, in MessageInput) (*models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, 5000)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		TaskID:    in.TaskID,
		UserID:    actor,
		Content:   content,
		Type:      models.MessageTypeText,
		CreatedAt: s.now(),
	}

	err = s.run(ctx, "send message", func(w *work) error {
		if err := s.requireAccess(ctx, w, actor, projectID); err != nil {
			return err
		}

		project, err := w.repos.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}

		var task *models.Task
		if msg.TaskID != "" {
			if task, err = w.repos.Tasks().GetByID(ctx, msg.TaskID); err != nil {
				return err
			}
			if task == nil || task.ProjectID != projectID {
				return invalid("task_id", "task does not belong to this project")
			}
		}

		sender, err := w.repos.Users().GetByID(ctx, actor)
		if err != nil {
			return err
		}
		if sender != nil {
			msg.AuthorName = sender.Name()
		}

		if err := w.repos.Messages().Create(ctx, msg); err != nil {
			return err
		}

		body := fmt.Sprintf("%s posted a message in project %q", msg.AuthorName, project.Name)
		if task != nil {
			body = fmt.Sprintf("%s posted a message in task %q (Project: %s)", msg.AuthorName, task.Title, project.Name)
		}

		recipients, err := messageRecipients(ctx, w, project, actor)
		if err != nil {
			return err
		}
		for _, userID := range recipients {
			n := &models.Notification{
				UserID:      userID,
				Title:       "New Message",
				Message:     body,
				Kind:        models.NotificationInfo,
				ProjectID:   projectID,
				ProjectName: project.Name,
			}
			if task != nil {
				n.TaskID, n.TaskTitle = task.ID, task.Title
			}
			w.notify(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// messageRecipients is the creator plus every member, excluding the sender.
func messageRecipients(ctx context.Context, w *work, project *models.Project, sender string) ([]string, error) {
	members, err := w.repos.Members().List(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{sender: true}
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(project.CreatedBy)
	for _, m := range members {
		add(m.UserID)
	}
	return out, nil
}

// ListMessages returns the project's most recent messages, oldest first.
func (s *Service) ListMessages(ctx context.Context, actor, projectID string) ([]*models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out []*models.Message
	err := s.run(ctx, "list messages", func(w *work) error {
		if err := s.requireAccess(ctx, w, actor, projectID); err != nil {
			return err
		}
		var err error
		out, err = w.repos.Messages().ListByProject(ctx, projectID, s.cfg.MessageHistory)
		return err
	})
	return out, err
}
