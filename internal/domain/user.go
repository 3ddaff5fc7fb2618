package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/persistence"
)

// Access levels recognised by the operations team.
const (
	AccessAdmin       = "Admin"
	AccessElectrician = "Tec. Eletricista"
	AccessCaretaker   = "Zelador"
	AccessMaintainer  = "Mantenedor"
)

// User is the stored identity record. It must never be serialized to clients; use PublicUser.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	AccessLevel  string `json:"accessLevel"`
}

// PublicUser is the projection of User exposed at the API boundary.
type PublicUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccessLevel string `json:"accessLevel"`
}

// Public strips the credential from u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		AccessLevel: u.AccessLevel,
	}
}

// UserRepository adds the equality lookup used for email uniqueness and login.
type UserRepository interface {
	Repository[User]
	FindOneBy(ctx context.Context, field, value string) (*User, error)
}

// UserInput carries user fields from the API layer. Empty strings mean "not supplied" on update.
type UserInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	AccessLevel string
}

// UserService manages team members and credential checks.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// ListUsers returns every user without credentials.
func (s *UserService) ListUsers(ctx context.Context) ([]PublicUser, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// GetUser fetches by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*PublicUser, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// CreateUser stores a new user with a hashed password. Emails are unique.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*PublicUser, error) {
	email := normalizeEmail(input.Email)
	if strings.TrimSpace(input.Name) == "" || email == "" || input.Password == "" {
		return nil, invalid("name, email and password are required")
	}
	if err := validateAccessLevel(input.AccessLevel); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		AccessLevel:  input.AccessLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	public := created.Public()
	return &public, nil
}

// UpdateUser overwrites the supplied fields. A new password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserInput) (*PublicUser, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateAccessLevel(input.AccessLevel); err != nil {
		return nil, err
	}

	if email := normalizeEmail(input.Email); email != "" && email != user.Email {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	overwrite(&user.Name, input.Name)
	overwrite(&user.Role, input.Role)
	overwrite(&user.AccessLevel, input.AccessLevel)
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, *user)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	public := updated.Public()
	return &public, nil
}

// DeleteUser removes a user. Deleting a missing user is not an error.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return ignoreNotFound(s.repo.Delete(ctx, id))
}

// Login verifies the credentials and returns the matching user.
func (s *UserService) Login(ctx context.Context, email, password string) (*PublicUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.FindOneBy(ctx, "email", email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	public := user.Public()
	return &public, nil
}

func (s *UserService) find(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindOneBy(ctx, "email", email)
	if err != nil {
		return fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return invalid("email already registered")
	}
	return nil
}

func validateAccessLevel(level string) error {
	switch level {
	case "", AccessAdmin, AccessElectrician, AccessCaretaker, AccessMaintainer:
		return nil
	}
	return invalid("unknown access level %q", level)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
