package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowThenUnfollowRestoresState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))
	ok, err := h.graph.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, h.reload(t, "b").FollowersCount)
	assert.Equal(t, 1, h.reload(t, "a").FollowingCount)

	inbox := h.inbox(t, "b")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.ActionFollow, inbox[0].ActionType)
	assert.Equal(t, "a", inbox[0].ActorID)
	assert.Equal(t, models.TargetUser, inbox[0].TargetType)

	require.NoError(t, h.graph.Unfollow(ctx, "a", "b"))
	ok, err = h.graph.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.reload(t, "b").FollowersCount)
	assert.Zero(t, h.reload(t, "a").FollowingCount)
}

func TestFollowTwiceCountsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))
	require.NoError(t, h.graph.Follow(ctx, "a", "b"))

	assert.Equal(t, 1, h.reload(t, "b").FollowersCount)
	assert.Equal(t, 1, h.reload(t, "a").FollowingCount)
	assert.Len(t, h.inbox(t, "b"), 1)

	require.NoError(t, h.graph.Unfollow(ctx, "a", "b"))
	require.NoError(t, h.graph.Unfollow(ctx, "a", "b"))
	assert.Zero(t, h.reload(t, "b").FollowersCount)
}

func TestFollowRejectsSelfAndUnknownUsers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")

	assert.ErrorIs(t, h.graph.Follow(ctx, "a", "a"), ErrCannotFollowSelf)
	assert.ErrorIs(t, h.graph.Follow(ctx, "a", "ghost"), ErrUserNotFound)
	assert.Zero(t, h.reload(t, "a").FollowingCount)
}

func TestFollowRepairsMissingMirror(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	require.NoError(t, h.follows.AddFollower(ctx, &models.FollowRecord{FollowerID: "a", FollowedID: "b"}))

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))

	following, err := h.graph.GetFollowing(ctx, "a", nil, 10)
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, "b", following.Items[0].ID)
}

func TestGetFollowersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	h.user(t, "c", "carla", "")
	h.user(t, "d", "davi", "")

	require.NoError(t, h.graph.Follow(ctx, "b", "a"))
	require.NoError(t, h.graph.Follow(ctx, "c", "a"))
	require.NoError(t, h.graph.Follow(ctx, "d", "a"))

	first, err := h.graph.GetFollowers(ctx, "a", nil, 2)
	require.NoError(t, err)
	require.True(t, first.HasMore)
	assert.Equal(t, []string{"d", "c"}, []string{first.Items[0].ID, first.Items[1].ID})

	rest, err := h.graph.GetFollowers(ctx, "a", first.Next, 2)
	require.NoError(t, err)
	assert.False(t, rest.HasMore)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "b", rest.Items[0].ID)

	ids, err := h.graph.FollowingIDs(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

type failingStore struct {
	*docstore.MemoryStore
	err error
}

func (s *failingStore) Get(context.Context, string, string) (*docstore.Document, error) {
	return nil, s.err
}

func TestGraphPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("deadline exceeded")
	h := newHarnessOn(t, &failingStore{MemoryStore: docstore.NewMemoryStore(), err: boom})

	err := h.graph.Follow(context.Background(), "a", "b")
	assert.Same(t, boom, err)
}
