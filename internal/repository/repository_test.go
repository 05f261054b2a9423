package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"github.com/tasknexus/server/internal/database"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
}

func (suite *RepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.ctx = context.Background()
}

func (suite *RepositoryTestSuite) registration(username, email string) (*models.User, *models.Workspace, *models.WorkspaceMember, *models.Project) {
	user := &models.User{Username: username, Email: email, PasswordHash: "hash"}
	ws := &models.Workspace{Name: username + " Workspace", InviteCode: username + "-invite"}
	member := &models.WorkspaceMember{Role: models.RoleOwner, JoinedAt: time.Now()}
	project := &models.Project{Name: "My First Project", Color: "#3B82F6"}
	return user, ws, member, project
}

func (suite *RepositoryTestSuite) TestCreateWithDefaultWorkspace() {
	repo := NewUserRepository(suite.db)
	user, ws, member, project := suite.registration("alice", "alice@x.com")

	suite.Require().NoError(repo.CreateWithDefaultWorkspace(suite.ctx, user, ws, member, project))

	suite.NotZero(user.ID)
	suite.Equal(user.ID, ws.OwnerID)
	suite.Equal(ws.ID, member.WorkspaceID)
	suite.Equal(user.ID, member.UserID)
	suite.Equal(ws.ID, project.WorkspaceID)

	memberships, err := NewWorkspaceRepository(suite.db).ListMembershipsByUserID(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Require().Len(memberships, 1)
	suite.Equal(models.RoleOwner, memberships[0].Role)
	suite.Equal("alice Workspace", memberships[0].Workspace.Name)
}

func (suite *RepositoryTestSuite) TestCreateWithDefaultWorkspace_RollsBack() {
	repo := NewUserRepository(suite.db)
	user, ws, member, project := suite.registration("alice", "alice@x.com")
	suite.Require().NoError(repo.CreateWithDefaultWorkspace(suite.ctx, user, ws, member, project))

	// Same invite code makes the workspace insert fail after the user insert succeeded.
	bob, bobWS, bobMember, bobProject := suite.registration("bob", "bob@x.com")
	bobWS.InviteCode = ws.InviteCode

	err := repo.CreateWithDefaultWorkspace(suite.ctx, bob, bobWS, bobMember, bobProject)
	suite.Require().Error(err)
	suite.True(errors.Is(err, ErrCreateWorkspace))
	suite.True(errors.Is(err, gorm.ErrDuplicatedKey))

	_, err = repo.FindByEmail(suite.ctx, "bob@x.com")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *RepositoryTestSuite) TestCreateWithDefaultWorkspace_DuplicateEmail() {
	repo := NewUserRepository(suite.db)
	user, ws, member, project := suite.registration("alice", "alice@x.com")
	suite.Require().NoError(repo.CreateWithDefaultWorkspace(suite.ctx, user, ws, member, project))

	dup, dupWS, dupMember, dupProject := suite.registration("alice2", "alice@x.com")
	err := repo.CreateWithDefaultWorkspace(suite.ctx, dup, dupWS, dupMember, dupProject)

	suite.True(errors.Is(err, ErrCreateUser))
	suite.True(errors.Is(err, gorm.ErrDuplicatedKey))
}

func (suite *RepositoryTestSuite) TestWorkspaceDelete_Cascades() {
	owner := testutil.CreateUser(suite.T(), suite.db, "owner")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "doomed", owner)
	project := testutil.CreateProject(suite.T(), suite.db, "p", ws)
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "t1"})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "t2"})

	other := testutil.CreateWorkspace(suite.T(), suite.db, "kept", owner)
	otherProject := testutil.CreateProject(suite.T(), suite.db, "kept", other)
	kept := testutil.CreateTask(suite.T(), suite.db, otherProject, &models.Task{Title: "kept"})

	suite.Require().NoError(NewWorkspaceRepository(suite.db).Delete(suite.ctx, ws.ID))

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(1), count)
	suite.db.Model(&models.Project{}).Where("workspace_id = ?", ws.ID).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", ws.ID).Count(&count)
	suite.Zero(count)

	_, err := NewTaskRepository(suite.db).FindByID(suite.ctx, kept.ID)
	suite.NoError(err)
}

func (suite *RepositoryTestSuite) TestProjectListsCarryCounters() {
	owner := testutil.CreateUser(suite.T(), suite.db, "owner")
	stranger := testutil.CreateUser(suite.T(), suite.db, "stranger")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "ws", owner)
	testutil.CreateWorkspace(suite.T(), suite.db, "private", stranger)
	project := testutil.CreateProject(suite.T(), suite.db, "p", ws)
	testutil.CreateProject(suite.T(), suite.db, "empty", ws)
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "open"})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "closed", Status: models.TaskStatusDone})

	repo := NewProjectRepository(suite.db)

	projects, err := repo.ListByWorkspace(suite.ctx, ws.ID)
	suite.Require().NoError(err)
	suite.Require().Len(projects, 2)
	suite.Equal("p", projects[0].Name)
	suite.Equal(int64(2), projects[0].TaskCount)
	suite.Equal(int64(1), projects[0].CompletedCount)
	suite.Zero(projects[1].TaskCount)

	visible, err := repo.ListForUser(suite.ctx, owner.ID)
	suite.Require().NoError(err)
	suite.Len(visible, 2)

	none, err := repo.ListForUser(suite.ctx, stranger.ID)
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *RepositoryTestSuite) TestTaskList_ScopedAndFiltered() {
	alice := testutil.CreateUser(suite.T(), suite.db, "alice")
	bob := testutil.CreateUser(suite.T(), suite.db, "bob")
	aliceWS := testutil.CreateWorkspace(suite.T(), suite.db, "alice-ws", alice)
	bobWS := testutil.CreateWorkspace(suite.T(), suite.db, "bob-ws", bob)
	aliceProject := testutil.CreateProject(suite.T(), suite.db, "a", aliceWS)
	bobProject := testutil.CreateProject(suite.T(), suite.db, "b", bobWS)

	base := time.Now().Add(-time.Hour)
	for i, status := range []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusDone, models.TaskStatusTodo} {
		testutil.CreateTask(suite.T(), suite.db, aliceProject, &models.Task{
			Title:     "alice task",
			Status:    status,
			Priority:  models.PriorityHigh,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	testutil.CreateTask(suite.T(), suite.db, bobProject, &models.Task{Title: "bob task"})

	repo := NewTaskRepository(suite.db)

	tasks, total, err := repo.List(suite.ctx, TaskFilter{UserID: alice.ID, Page: 1, PageSize: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(tasks, 2)
	suite.True(tasks[0].CreatedAt.After(tasks[1].CreatedAt))

	todo := models.TaskStatusTodo
	tasks, total, err = repo.List(suite.ctx, TaskFilter{UserID: alice.ID, Status: &todo})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(tasks, 2)

	tasks, total, err = repo.List(suite.ctx, TaskFilter{UserID: alice.ID, ProjectID: &bobProject.ID})
	suite.Require().NoError(err)
	suite.Zero(total)
	suite.Empty(tasks)

	low := models.PriorityLow
	_, total, err = repo.List(suite.ctx, TaskFilter{UserID: alice.ID, Priority: &low})
	suite.Require().NoError(err)
	suite.Zero(total)
}

func (suite *RepositoryTestSuite) TestTaskUpdateFields() {
	owner := testutil.CreateUser(suite.T(), suite.db, "owner")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "ws", owner)
	project := testutil.CreateProject(suite.T(), suite.db, "p", ws)
	task := testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "t"})

	repo := NewTaskRepository(suite.db)
	suite.Require().NoError(repo.UpdateFields(suite.ctx, task.ID, map[string]interface{}{
		"status":    models.TaskStatusDone,
		"completed": true,
		"due_date":  nil,
	}))

	updated, err := repo.FindByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, updated.Status)
	suite.True(updated.Completed)
	suite.Nil(updated.DueDate)
	suite.Equal("t", updated.Title)
}

func (suite *RepositoryTestSuite) TestDashboardCounts() {
	now := time.Now()
	alice := testutil.CreateUser(suite.T(), suite.db, "alice")
	bob := testutil.CreateUser(suite.T(), suite.db, "bob")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "ws", alice)
	bobWS := testutil.CreateWorkspace(suite.T(), suite.db, "bob-ws", bob)
	project := testutil.CreateProject(suite.T(), suite.db, "p", ws)
	bobProject := testutil.CreateProject(suite.T(), suite.db, "b", bobWS)

	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "overdue", DueDate: &past})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "later", DueDate: &future, Status: models.TaskStatusInProgress, Priority: models.PriorityUrgent})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "done late", DueDate: &past, Status: models.TaskStatusDone})
	testutil.CreateTask(suite.T(), suite.db, bobProject, &models.Task{Title: "hidden", DueDate: &past})
	// Due at exactly now is not yet overdue.
	dueNow := now
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "due now", DueDate: &dueNow})

	counts, err := NewAnalyticsRepository(suite.db).DashboardCounts(suite.ctx, alice.ID, now)
	suite.Require().NoError(err)

	suite.Equal(int64(4), counts.TotalTasks)
	suite.Equal(int64(1), counts.CompletedTasks)
	suite.Equal(int64(1), counts.InProgressTasks)
	suite.Equal(int64(1), counts.OverdueTasks)
	suite.Equal(int64(1), counts.TotalProjects)
	suite.Equal(int64(1), counts.TotalWorkspaces)

	var statusSum int64
	for _, sc := range counts.ByStatus {
		statusSum += sc.Count
	}
	suite.Equal(counts.TotalTasks, statusSum)
	suite.Len(counts.ByPriority, 2)
}

func (suite *RepositoryTestSuite) TestTaskActivitySince() {
	now := time.Now()
	alice := testutil.CreateUser(suite.T(), suite.db, "alice")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "ws", alice)
	project := testutil.CreateProject(suite.T(), suite.db, "p", ws)

	old := now.AddDate(0, 0, -30)
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "recent", CreatedAt: now, UpdatedAt: now})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "ancient", CreatedAt: old, UpdatedAt: old})
	testutil.CreateTask(suite.T(), suite.db, project, &models.Task{Title: "finished", Status: models.TaskStatusDone, CreatedAt: old, UpdatedAt: now})

	activity, err := NewAnalyticsRepository(suite.db).TaskActivitySince(suite.ctx, alice.ID, now.AddDate(0, 0, -7))
	suite.Require().NoError(err)
	suite.Len(activity, 2)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestDashboardCounts_RollsBackOnQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), database.GormConfig("silent"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM .tasks.`).WillReturnError(boom)
	mock.ExpectRollback()

	counts, err := NewAnalyticsRepository(db).DashboardCounts(context.Background(), 1, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if counts != nil {
		t.Fatalf("expected nil counts, got %+v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
