package models

import "time"

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(20);not null;default:'#3B82F6'" json:"color"`
	WorkspaceID uint64    `gorm:"not null" json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
	Tasks     []Task    `gorm:"foreignKey:ProjectID" json:"-"`
}

// ProjectWithStats is a project row joined with its task counters.
type ProjectWithStats struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	WorkspaceID    uint64    `json:"workspace_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TaskCount      int64     `json:"task_count"`
	CompletedCount int64     `json:"completed_count"`
}
