package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamhub/internal/domain"
	"teamhub/internal/domain/models"
	"teamhub/internal/domain/services"
)

func TestGetMe_SyncsProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	newcomer := "00000000-0000-0000-0000-0000000000f6"

	user, err := env.users.GetMe(ctx, services.Identity{UserID: newcomer, Email: "frank.l@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "frank.l", user.FullName)
	assert.Equal(t, models.UserRoleMember, user.Role)

	// A returning admin keeps their role and stored name
	user, err = env.users.GetMe(ctx, services.Identity{UserID: admin, Email: "ada@example.com", FullName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, user.Role)
	assert.Equal(t, "Ada Admin", user.FullName)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = env.users.GetMe(ctx, services.Identity{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  services.UpdateProfileRequest
		want error
	}{
		{name: "blank name", req: services.UpdateProfileRequest{FullName: strPtr("  ")}, want: domain.ErrValidation},
		{name: "bad avatar", req: services.UpdateProfileRequest{AvatarURL: services.Set("not a url")}, want: domain.ErrValidation},
		{name: "long job title", req: services.UpdateProfileRequest{JobTitle: services.Set(strings.Repeat("x", 200))}, want: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.users.UpdateProfile(ctx, bob, &req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	user, err := env.users.UpdateProfile(ctx, bob, &services.UpdateProfileRequest{
		FullName:  strPtr("Robert"),
		AvatarURL: services.Set("https://cdn.example.com/bob.png"),
		JobTitle:  services.Set(" Engineer "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Robert", user.FullName)
	require.NotNil(t, user.JobTitle)
	assert.Equal(t, "Engineer", *user.JobTitle)

	user, err = env.users.UpdateProfile(ctx, bob, &services.UpdateProfileRequest{
		AvatarURL: services.Optional[string]{Present: true},
	})
	require.NoError(t, err)
	assert.Nil(t, user.AvatarURL)
	assert.NotNil(t, user.JobTitle, "absent fields are untouched")
}

func TestGetMe_KeepsProfileEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.UpdateProfile(ctx, bob, &services.UpdateProfileRequest{
		FullName:  strPtr("Robert Custom"),
		AvatarURL: services.Set("https://cdn.example.com/robert.png"),
	})
	require.NoError(t, err)

	// Claims still carry the provider's values; they must not overwrite the edit
	user, err := env.users.GetMe(ctx, services.Identity{
		UserID:    bob,
		Email:     "bob@example.com",
		AvatarURL: "https://provider.example.com/avatar.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Robert Custom", user.FullName)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/robert.png", *user.AvatarURL)
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.SetRole(ctx, bob, carol, models.UserRoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.users.SetRole(ctx, admin, admin, models.UserRoleMember)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.users.SetRole(ctx, admin, bob, "superuser")
	assert.ErrorIs(t, err, domain.ErrValidation)

	user, err := env.users.SetRole(ctx, admin, bob, models.UserRoleAdmin)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	isAdmin, err := env.authz.IsAdmin(ctx, bob)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}
