package models

import (
	"time"
)

// ProjectStatus is the derived completion state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "blue"

// Project groups tasks, members and messages. CreatedBy never changes after
// creation and Status is only ever written by the status engine.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Color       string        `json:"color"`
	CreatedBy   string        `json:"created_by"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewProject creates a new active Project with initialized timestamps.
func NewProject(name, description, color, createdBy string) *Project {
	now := time.Now()
	if color == "" {
		color = DefaultProjectColor
	}
	return &Project{
		Name:        name,
		Description: description,
		Color:       color,
		CreatedBy:   createdBy,
		Status:      ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsCreator reports whether userID created the project.
func (p *Project) IsCreator(userID string) bool {
	return userID != "" && p.CreatedBy == userID
}

// ProjectSummary is a project row decorated for listings.
type ProjectSummary struct {
	Project
	CreatorName string `json:"creator_name"`
	TaskCount   int    `json:"task_count"`
	MemberCount int    `json:"member_count"`
}
