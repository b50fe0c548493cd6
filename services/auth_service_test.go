package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dm-relay/auth"
	"dm-relay/errors"
	"dm-relay/mocks"
	"dm-relay/repositories"
)

func TestAuthService_Register(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := NewAuthService(mockRepo, tokens)

	t.Run("Successful registration returns a token", func(t *testing.T) {
		// Given
		email, password := "new@example.com", "ComplexPass123!"
		mockRepo.EXPECT().
			CreateUser(email, gomock.Not(gomock.Eq(password))).
			Return("user-id-1", nil)

		// When
		token, err := svc.Register(email, password)

		// Then
		req.NoError(err)
		req.NotEmpty(token)

		claims, err := tokens.Validate(string(token))
		req.NoError(err)
		req.Equal("user-id-1", claims.UserID)
	})

	t.Run("Weak password never reaches the repository", func(t *testing.T) {
		// Given
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		// When
		_, err := svc.Register("new@example.com", "weak")

		// Then
		req.ErrorIs(err, errors.ErrInvalidPassword)
	})

	t.Run("Duplicate email propagates the conflict", func(t *testing.T) {
		// Given
		mockRepo.EXPECT().
			CreateUser("taken@example.com", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists)

		// When
		_, err := svc.Register("taken@example.com", "ComplexPass123!")

		// Then
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := NewAuthService(mockRepo, tokens)

	hash, err := auth.HashPassword("ComplexPass123!")
	req.NoError(err)
	storedUser := repositories.User{
		ID:           "user-id-1",
		Email:        "known@example.com",
		PasswordHash: hash,
		Roles:        []string{"user"},
	}

	t.Run("Valid credentials return a token carrying roles", func(t *testing.T) {
		// Given
		mockRepo.EXPECT().GetUserByEmail("known@example.com").Return(storedUser, nil)

		// When
		token, err := svc.Login("known@example.com", "ComplexPass123!")

		// Then
		req.NoError(err)
		claims, err := tokens.Validate(string(token))
		req.NoError(err)
		req.Equal("user-id-1", claims.UserID)
		req.Equal([]string{"user"}, claims.Roles)
	})

	t.Run("Wrong password yields generic credentials error", func(t *testing.T) {
		// Given
		mockRepo.EXPECT().GetUserByEmail("known@example.com").Return(storedUser, nil)

		// When
		_, err := svc.Login("known@example.com", "WrongPass123!!")

		// Then
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("Unknown email yields the same generic error", func(t *testing.T) {
		// Given
		mockRepo.EXPECT().GetUserByEmail("ghost@example.com").Return(repositories.User{}, errors.ErrInvalidCredentials)

		// When
		_, err := svc.Login("ghost@example.com", "ComplexPass123!")

		// Then
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
