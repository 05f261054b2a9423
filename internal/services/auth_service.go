package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"github.com/tasknexus/server/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUsernameRequired     = errors.New("username is required")
	ErrPasswordTooLong      = errors.New("password must be at most 72 bytes")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateWS     = errors.New("failed to create default workspace")
	ErrFailedToAddMember    = errors.New("failed to add user to workspace")
	ErrFailedToCreateProj   = errors.New("failed to create default project")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is a signed token together with the user it identifies.
type AuthResult struct {
	Token string
	User  *models.User
}

// Register creates a new user along with a default workspace and project.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := normalizeEmail(input.Email)

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	} else if err != nil {
		return nil, ErrFailedToHashPassword
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	ws := &models.Workspace{
		Name:        username + constants.DefaultWorkspaceSuffix,
		Description: constants.DefaultWorkspaceDescription,
		InviteCode:  inviteCode,
	}
	member := &models.WorkspaceMember{
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}
	project := &models.Project{
		Name:        constants.DefaultProjectName,
		Description: constants.DefaultProjectDescription,
		Color:       constants.DefaultProjectColor,
	}

	if err := s.userRepo.CreateWithDefaultWorkspace(ctx, user, ws, member, project); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser) && errors.Is(err, gorm.ErrDuplicatedKey):
			// Lost a race with a concurrent registration for the same email.
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrCreateUser):
			return nil, fmt.Errorf("%w: %w", ErrFailedToCreateUser, err)
		case errors.Is(err, repository.ErrCreateWorkspace):
			return nil, fmt.Errorf("%w: %w", ErrFailedToCreateWS, err)
		case errors.Is(err, repository.ErrCreateWorkspaceMember):
			return nil, fmt.Errorf("%w: %w", ErrFailedToAddMember, err)
		case errors.Is(err, repository.ErrCreateProject):
			return nil, fmt.Errorf("%w: %w", ErrFailedToCreateProj, err)
		default:
			return nil, fmt.Errorf("failed to complete registration: %w", err)
		}
	}

	return s.issue(user)
}

// Login verifies credentials and returns a token for the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
