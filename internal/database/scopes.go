package database

import (
	"gorm.io/gorm"

	"github.com/tasknexus/server/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// VisibleTasks restricts a tasks query to rows the user reaches through workspace membership.
func VisibleTasks(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Joins("JOIN workspace_members ON workspace_members.workspace_id = projects.workspace_id").
			Where("workspace_members.user_id = ?", userID)
	}
}

// VisibleProjects restricts a projects query to the user's workspaces.
func VisibleProjects(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN workspace_members ON workspace_members.workspace_id = projects.workspace_id").
			Where("workspace_members.user_id = ?", userID)
	}
}
