package models

import (
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Rank orders statuses for display: todo < in_progress < done < unknown.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskTodo:
		return 1
	case TaskInProgress:
		return 2
	case TaskDone:
		return 3
	default:
		return 4
	}
}

// Priority is a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one project for its whole lifetime.
// AssignedTo is empty when the task is unassigned.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new todo Task with initialized timestamps.
func NewTask(projectID, title, createdBy string) *Task {
	now := time.Now()
	return &Task{
		ProjectID: projectID,
		Title:     title,
		CreatedBy: createdBy,
		Status:    TaskTodo,
		Priority:  PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TaskView is a task joined with the names needed for listings.
type TaskView struct {
	Task
	ProjectName  string `json:"project_name,omitempty"`
	ProjectColor string `json:"project_color,omitempty"`
	AssignedName string `json:"assigned_name,omitempty"`
	CreatorName  string `json:"creator_name,omitempty"`
}

// LessForDisplay orders tasks by status rank, then due date (undated last),
// then newest first.
func LessForDisplay(a, b *Task) bool {
	if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
		return ra < rb
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	}
	return a.CreatedAt.After(b.CreatedAt)
}
