package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karyalaya/patra-service/internal/auth"
	"github.com/karyalaya/patra-service/internal/domain"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret", 4)
	require.NoError(t, err)

	users := newFakeUserRepo()
	users.users["user-1"] = domain.User{
		ID:           "user-1",
		Email:        "clerk@example.gov.np",
		PasswordHash: hash,
		OfficeID:     "office-head",
		DepartmentID: "dept-admin",
		Role:         domain.RoleClerk,
	}
	svc := NewAuthService(users, auth.NewTokenManager("test-secret", 60))
	ctx := context.Background()

	token, _, user, err := svc.Login(ctx, "clerk@example.gov.np", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user-1", user.ID)

	_, _, _, err = svc.Login(ctx, "clerk@example.gov.np", "wrong")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.Login(ctx, "nobody@example.gov.np", "s3cret")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}
