package domain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/persistence"
	"github.com/tigocode/solar-back/internal/persistence/memory"
)

func newUsers() (*UserService, *persistence.Collection[User]) {
	repo := persistence.NewCollection[User](memory.NewStore(), persistence.CollectionUsers)
	return NewUserService(repo), repo
}

func TestCreateUserHashesPasswordAndNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	users, repo := newUsers()

	created, err := users.CreateUser(ctx, UserInput{
		Name:        "Ana",
		Email:       "  Ana@Solar.COM ",
		Password:    "s3cret",
		Role:        "Supervisora",
		AccessLevel: AccessAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, "ana@solar.com", created.Email)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", stored.PasswordHash)
	require.NotEmpty(t, stored.PasswordHash)

	body, err := json.Marshal(created)
	require.NoError(t, err)
	require.NotContains(t, string(body), "password")

	_, err = users.CreateUser(ctx, UserInput{Name: "Other", Email: "ana@solar.com", Password: "x"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = users.CreateUser(ctx, UserInput{Name: "Bob", Email: "bob@solar.com", Password: "x", AccessLevel: "Root"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = users.CreateUser(ctx, UserInput{Email: "c@solar.com", Password: "x"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers()

	created, err := users.CreateUser(ctx, UserInput{Name: "Ana", Email: "ana@solar.com", Password: "s3cret"})
	require.NoError(t, err)

	logged, err := users.Login(ctx, "ANA@solar.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, created.ID, logged.ID)

	_, err = users.Login(ctx, "ana@solar.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Login(ctx, "nobody@solar.com", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Login(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers()

	ana, err := users.CreateUser(ctx, UserInput{Name: "Ana", Email: "ana@solar.com", Password: "old"})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, UserInput{Name: "Bia", Email: "bia@solar.com", Password: "x"})
	require.NoError(t, err)

	_, err = users.UpdateUser(ctx, ana.ID, UserInput{Email: "bia@solar.com"})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := users.UpdateUser(ctx, ana.ID, UserInput{Password: "new", AccessLevel: AccessCaretaker})
	require.NoError(t, err)
	require.Equal(t, "Ana", updated.Name)
	require.Equal(t, AccessCaretaker, updated.AccessLevel)

	_, err = users.Login(ctx, "ana@solar.com", "new")
	require.NoError(t, err)

	_, err = users.UpdateUser(ctx, "missing", UserInput{Name: "x"})
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, users.DeleteUser(ctx, ana.ID))
	require.NoError(t, users.DeleteUser(ctx, ana.ID))
	_, err = users.GetUser(ctx, ana.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
