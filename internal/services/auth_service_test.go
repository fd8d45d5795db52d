package services

import (
	"context"
	"testing"
	"time"

	"cartify/internal/auth"
	"cartify/internal/domain"
	"cartify/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(users *mocks.MockUserRepository) *AuthService {
	return NewAuthService(users, auth.NewPasswordHasherWithCost(bcrypt.MinCost), auth.NewJWTManager("test-secret", time.Hour))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:     "success",
			email:    " Ada@Example.com ",
			password: "secret1",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
					return u.Email == "ada@example.com" && u.Role == domain.RoleUser && u.PasswordHash != "secret1"
				})).Return(nil)
			},
		},
		{
			name:     "email taken",
			email:    "ada@example.com",
			password: "secret1",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("Create", mock.Anything, mock.Anything).Return(domain.ErrEmailTaken)
			},
			expectedError: domain.ErrEmailTaken,
		},
		{
			name:          "short password",
			email:         "ada@example.com",
			password:      "abc",
			setupMocks:    func(*mocks.MockUserRepository) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "bad email",
			email:         "not-an-email",
			password:      "secret1",
			setupMocks:    func(*mocks.MockUserRepository) {},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mocks.MockUserRepository)
			tt.setupMocks(users)
			s := newAuthService(users)

			sess, err := s.Register(context.Background(), "Ada", tt.email, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, sess)
			} else {
				require.NoError(t, err)
				claims, err := s.Authenticate(sess.Token)
				require.NoError(t, err)
				assert.Equal(t, sess.User.ID, claims.UserID())
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.NewPasswordHasherWithCost(bcrypt.MinCost).Hash("secret1")
	require.NoError(t, err)
	admin := &domain.User{ID: "u1", Name: "Admin", Email: "admin@example.com", PasswordHash: hash, Role: domain.RoleAdmin}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:     "success",
			email:    "Admin@example.com",
			password: "secret1",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "admin@example.com").Return(admin, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "admin@example.com",
			password: "secret2",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "admin@example.com").Return(admin, nil)
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "secret1",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrUserNotFound)
			},
			expectedError: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mocks.MockUserRepository)
			tt.setupMocks(users)
			s := newAuthService(users)

			sess, err := s.Login(context.Background(), tt.email, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, sess)
			} else {
				require.NoError(t, err)
				claims, err := s.Authenticate(sess.Token)
				require.NoError(t, err)
				assert.Equal(t, domain.RoleAdmin, claims.Role)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	s := newAuthService(new(mocks.MockUserRepository))

	_, err := s.Authenticate("")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Authenticate("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
