package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type indexDef struct {
	table   string
	name    string
	columns string
}

// secondaryIndexes back the membership joins and the analytics filters.
var secondaryIndexes = []indexDef{
	{"tasks", "idx_tasks_project_id", "project_id"},
	{"tasks", "idx_tasks_status", "status"},
	{"tasks", "idx_tasks_due_date", "due_date"},
	{"tasks", "idx_tasks_created_at", "created_at"},
	{"tasks", "idx_tasks_updated_at", "updated_at"},
	{"projects", "idx_projects_workspace_id", "workspace_id"},
	{"workspace_members", "idx_workspace_members_user_id", "user_id"},
}

// AddIndexes creates the secondary indexes that do not exist yet.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()
	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}
	return nil
}
