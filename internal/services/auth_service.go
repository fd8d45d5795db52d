package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"cartify/internal/auth"
	"cartify/internal/domain"
	"cartify/internal/repository"

	"github.com/google/uuid"
)

const MinPasswordLength = 6

// Session is what register and login hand back to the caller.
type Session struct {
	User  *domain.User
	Token string
}

type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.JWTManager
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.JWTManager) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	v := domain.NewValidationError()
	if name == "" {
		v.Add("name", "Please add a name")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "Please add a valid email")
	}
	if len(password) < MinPasswordLength {
		v.Add("password", "Password must be at least 6 characters")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// Authenticate resolves a bearer token to its claims.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
