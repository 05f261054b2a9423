package dto

import (
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/services"
)

type StatusCountDTO struct {
	Status models.TaskStatus `json:"status"`
	Count  int64             `json:"count"`
}

type PriorityCountDTO struct {
	Priority models.TaskPriority `json:"priority"`
	Count    int64               `json:"count"`
}

// DashboardDTO keeps the camelCase keys the dashboard client reads.
type DashboardDTO struct {
	TotalTasks      int64              `json:"totalTasks"`
	CompletedTasks  int64              `json:"completedTasks"`
	InProgressTasks int64              `json:"inProgressTasks"`
	OverdueTasks    int64              `json:"overdueTasks"`
	TotalProjects   int64              `json:"totalProjects"`
	TotalWorkspaces int64              `json:"totalWorkspaces"`
	TasksByStatus   []StatusCountDTO   `json:"tasksByStatus"`
	TasksByPriority []PriorityCountDTO `json:"tasksByPriority"`
}

type DayActivityDTO struct {
	Day       string `json:"day"`
	Date      string `json:"date"`
	Completed int64  `json:"completed"`
	Created   int64  `json:"created"`
}

func ToDashboardDTO(s *services.DashboardSummary) DashboardDTO {
	byStatus := make([]StatusCountDTO, len(s.TasksByStatus))
	for i, sc := range s.TasksByStatus {
		byStatus[i] = StatusCountDTO{Status: sc.Status, Count: sc.Count}
	}
	byPriority := make([]PriorityCountDTO, len(s.TasksByPriority))
	for i, pc := range s.TasksByPriority {
		byPriority[i] = PriorityCountDTO{Priority: pc.Priority, Count: pc.Count}
	}

	return DashboardDTO{
		TotalTasks:      s.TotalTasks,
		CompletedTasks:  s.CompletedTasks,
		InProgressTasks: s.InProgressTasks,
		OverdueTasks:    s.OverdueTasks,
		TotalProjects:   s.TotalProjects,
		TotalWorkspaces: s.TotalWorkspaces,
		TasksByStatus:   byStatus,
		TasksByPriority: byPriority,
	}
}

func ToDayActivityDTOs(series []services.DayActivity) []DayActivityDTO {
	dtos := make([]DayActivityDTO, len(series))
	for i, d := range series {
		dtos[i] = DayActivityDTO{Day: d.Day, Date: d.Date, Completed: d.Completed, Created: d.Created}
	}
	return dtos
}
