package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"github.com/tasknexus/server/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNotFound          = errors.New("workspace not found")
	ErrInvalidWorkspaceName       = errors.New("workspace name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyWorkspaceMember     = errors.New("user is already a member of this workspace")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the workspace")
	ErrWorkspaceMemberNotFound    = errors.New("workspace member not found")
	ErrNotWorkspaceMember         = errors.New("user is not a member of the workspace")
	ErrLastOwnedWorkspace         = errors.New("cannot delete your only owned workspace")
)

// WorkspaceService provides business logic for workspace operations.
type WorkspaceService struct {
	wsRepo repository.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(wsRepo repository.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{
		wsRepo: wsRepo,
	}
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	Name        string
	Description string
	OwnerID     uint64
}

// UpdateWorkspaceInput carries the fields to change; nil leaves a field as is.
type UpdateWorkspaceInput struct {
	Name        *string
	Description *string
}

// CreateWorkspace creates a new workspace and its owner membership in one transaction.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, input CreateWorkspaceInput) (*models.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidWorkspaceName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	ws := &models.Workspace{
		Name:        name,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		InviteCode:  inviteCode,
	}
	owner := &models.WorkspaceMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.wsRepo.CreateWithOwner(ctx, ws, owner); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return ws, nil
}

// ListWorkspacesForUser returns the user's memberships with their workspaces, ordered by workspace id.
func (s *WorkspaceService) ListWorkspacesForUser(ctx context.Context, userID uint64) ([]models.WorkspaceMember, error) {
	memberships, err := s.wsRepo.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return memberships, nil
}

// GetWorkspaceWithMembers returns a workspace and all of its members.
func (s *WorkspaceService) GetWorkspaceWithMembers(ctx context.Context, wsID uint64) (*models.Workspace, []models.WorkspaceMember, error) {
	ws, err := s.findWorkspace(ctx, wsID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.wsRepo.ListMembers(ctx, wsID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list workspace members: %w", err)
	}

	return ws, members, nil
}

// UpdateWorkspace changes a workspace's name and description.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, wsID uint64, input UpdateWorkspaceInput) (*models.Workspace, error) {
	ws, err := s.findWorkspace(ctx, wsID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidWorkspaceName
		}
		ws.Name = name
	}
	if input.Description != nil {
		ws.Description = *input.Description
	}

	if err := s.wsRepo.Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return ws, nil
}

// DeleteWorkspace removes a workspace with its projects, tasks and memberships.
// The actor must keep at least one workspace they own.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, wsID, actorID uint64) error {
	if _, err := s.findWorkspace(ctx, wsID); err != nil {
		return err
	}

	memberships, err := s.wsRepo.ListMembershipsByUserID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}
	owned := 0
	for _, m := range memberships {
		if m.Role == models.RoleOwner {
			owned++
		}
	}
	if owned <= 1 {
		return ErrLastOwnedWorkspace
	}

	if err := s.wsRepo.Delete(ctx, wsID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}

// JoinWorkspaceByInvite adds a user to a workspace as a member via invite code.
func (s *WorkspaceService) JoinWorkspaceByInvite(ctx context.Context, userID uint64, inviteCode string) (*models.Workspace, error) {
	code := utils.NormalizeInviteCode(inviteCode)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}

	ws, err := s.wsRepo.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find workspace by invite code: %w", err)
	}

	if _, err := s.wsRepo.FindMember(ctx, ws.ID, userID); err == nil {
		return nil, ErrAlreadyWorkspaceMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      userID,
		Role:        models.RoleMember,
		JoinedAt:    time.Now(),
	}

	if err := s.wsRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyWorkspaceMember
		}
		return nil, fmt.Errorf("failed to add member to workspace: %w", err)
	}

	return ws, nil
}

// RegenerateInviteCode generates a new invite code for the workspace.
func (s *WorkspaceService) RegenerateInviteCode(ctx context.Context, wsID uint64) (*models.Workspace, error) {
	ws, err := s.findWorkspace(ctx, wsID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	ws.InviteCode = code
	if err := s.wsRepo.Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return ws, nil
}

// RemoveMember removes a member from the workspace.
func (s *WorkspaceService) RemoveMember(ctx context.Context, wsID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.wsRepo.FindMember(ctx, wsID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkspaceMemberNotFound
		}
		return fmt.Errorf("failed to find workspace member: %w", err)
	}

	if err := s.wsRepo.RemoveMember(ctx, wsID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *WorkspaceService) findWorkspace(ctx context.Context, wsID uint64) (*models.Workspace, error) {
	ws, err := s.wsRepo.FindByID(ctx, wsID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return ws, nil
}

// ensureWorkspaceMember verifies that a user belongs to a workspace
func ensureWorkspaceMember(ctx context.Context, wsRepo repository.WorkspaceRepository, wsID, userID uint64) error {
	if _, err := wsRepo.FindMember(ctx, wsID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotWorkspaceMember
		}
		return fmt.Errorf("failed to verify workspace membership: %w", err)
	}
	return nil
}
