package repository

import (
	"context"
	"testing"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func createParent(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Dana",
		LastName:     "Stone",
		Role:         model.RoleParent,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupRepositoryTest(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "parent@example.com",
				PasswordHash: "hashedpassword",
				FirstName:    "Dana",
				Role:         model.RoleParent,
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "parent@example.com",
				PasswordHash: "hashedpassword",
				FirstName:    "Other",
				Role:         model.RoleParent,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_Find(t *testing.T) {
	testDB := setupRepositoryTest(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()
	user := createParent(t, testDB, "parent@example.com")

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Stone", found.FullName())

	found, err = repo.FindByEmail(ctx, "parent@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
