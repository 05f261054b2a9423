package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tasknexus/server/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the registration transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateWorkspace is returned when creating the default workspace fails.
	ErrCreateWorkspace = errors.New("user repository: create workspace failed")
	// ErrCreateWorkspaceMember is returned when creating the owner membership fails.
	ErrCreateWorkspaceMember = errors.New("user repository: create workspace member failed")
	// ErrCreateProject is returned when creating the starter project fails.
	ErrCreateProject = errors.New("user repository: create project failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithDefaultWorkspace creates the registration rows atomically. A
// failure at any step rolls back everything before it.
func (r *GormUserRepository) CreateWithDefaultWorkspace(ctx context.Context, user *models.User, ws *models.Workspace, member *models.WorkspaceMember, project *models.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		ws.OwnerID = user.ID
		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateWorkspace, err)
		}

		member.WorkspaceID = ws.ID
		member.UserID = user.ID
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateWorkspaceMember, err)
		}

		project.WorkspaceID = ws.ID
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateProject, err)
		}

		return nil
	})
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
