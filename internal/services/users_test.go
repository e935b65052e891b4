package services

import (
	"context"
	"testing"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	u := h.user(t, "a", "  Ana ", "Ana Silva")
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "ana ana silva", u.SearchText)
	assert.NotEmpty(t, u.SearchGrams2)
	assert.NotEmpty(t, u.SearchGrams3)

	_, err := h.profiles.CreateProfile(ctx, "b", "b@example.com", &models.CreateUserRequest{Username: "ANA"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = h.profiles.CreateProfile(ctx, "a", "a@example.com", &models.CreateUserRequest{Username: "other"})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	found, err := h.profiles.GetByUsername(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "a", found.ID)
	_, err = h.profiles.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfileRegeneratesSearchFields(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "Ana Silva")
	h.user(t, "b", "bruno", "")

	name := "Ana Souza"
	u, err := h.profiles.UpdateProfile(ctx, "a", &models.UpdateUserRequest{DisplayName: &name})
	require.NoError(t, err)
	want := search.Build("ana", "Ana Souza")
	assert.Equal(t, want.Text, u.SearchText)
	assert.Equal(t, want.Grams2, u.SearchGrams2)
	assert.Equal(t, want.Grams3, u.SearchGrams3)

	results, err := h.profiles.Search(ctx, "souza", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	results, err = h.profiles.Search(ctx, "silva", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	taken := "Bruno"
	_, err = h.profiles.UpdateProfile(ctx, "a", &models.UpdateUserRequest{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	renamed := "aninha"
	bio := "hi"
	u, err = h.profiles.UpdateProfile(ctx, "a", &models.UpdateUserRequest{Username: &renamed, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "aninha", u.Username)
	assert.Equal(t, "hi", u.Bio)
	assert.Equal(t, search.Build("aninha", "Ana Souza").Text, u.SearchText)

	_, err = h.profiles.UpdateProfile(ctx, "ghost", &models.UpdateUserRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchByPrefix(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "anabel", "")
	h.user(t, "c", "bruno", "")

	users, err := h.profiles.SearchByPrefix(ctx, "AN", 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = h.profiles.SearchByPrefix(ctx, " ", 0)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestBackfillSearchFields(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "Ana Silva")
	_, err := h.users.CreateUser(ctx, "legacy", &models.User{Username: "joão", DisplayName: "João Conceição"})
	require.NoError(t, err)

	n, err := h.profiles.BackfillSearchFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	legacy := h.reload(t, "legacy")
	assert.Equal(t, "joao joao conceicao", legacy.SearchText)

	n, err = h.profiles.BackfillSearchFields(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a second run finds nothing stale")
}
