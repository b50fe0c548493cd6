package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dm-relay/errors"
)

func Test_CreateUser_And_Lookup(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	userID, err := repository.CreateUser("alice@example.com", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(userID)

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(userID, user.ID)
	req.Equal("hashed-secret", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)

	exists, err := repository.Exists(userID)
	req.NoError(err)
	req.True(exists)
}

func Test_CreateUser_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	_, err := repository.CreateUser("bob@example.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("bob@example.com", "another-hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Exists_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	exists, err := repository.Exists(uuid.NewString())
	req.NoError(err)
	req.False(exists)
}
