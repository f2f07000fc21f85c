package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateAndFindUser(t *testing.T) {
	repo := NewRepository(testutil.OpenDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Username:     " supervisor ",
		Email:        "Sup@Example.com",
		PasswordHash: "hash",
		Role:         enums.UserRoleSupervisor,
	})
	require.NoError(t, err)
	assert.Equal(t, "supervisor", created.Username)
	assert.Equal(t, "sup@example.com", created.Email)
	assert.True(t, created.IsActive)

	found, err := repo.FindByUsername(ctx, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, at.Equal(*byID.LastLoginAt))

	dto := FromModel(byID)
	assert.Equal(t, "supervisor", dto.Role)

	_, err = repo.FindByUsername(ctx, "nadie")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCreateUserDefaultsToAdmin(t *testing.T) {
	user := CreateUserDTO{Username: "admin"}.ToModel()
	assert.Equal(t, string(enums.UserRoleAdmin), user.Role)
	assert.NotEmpty(t, user.ID)
}
