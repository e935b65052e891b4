package services

import (
	"context"
	"testing"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	p := h.post(t, "a")

	require.NoError(t, h.engagement.Like(ctx, "b", p.ID, models.TargetPost))
	require.NoError(t, h.engagement.Like(ctx, "b", p.ID, models.TargetPost))

	liked, err := h.engagement.IsLiked(ctx, "b", p.ID, models.TargetPost)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, []models.ActionType{models.ActionLike}, actions(h.inbox(t, "a")))

	require.NoError(t, h.engagement.Unlike(ctx, "b", p.ID, models.TargetPost))
	require.NoError(t, h.engagement.Unlike(ctx, "b", p.ID, models.TargetPost))
	got, err = h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LikeCount)

	liked, err = h.engagement.IsLiked(ctx, "b", p.ID, models.TargetPost)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikeComment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	h.user(t, "c", "carla", "")
	p := h.post(t, "a")
	c, err := h.engagement.CreateComment(ctx, "b", p.ID, &models.CreateCommentRequest{Text: "nice"})
	require.NoError(t, err)

	require.NoError(t, h.engagement.Like(ctx, "c", c.ID, models.TargetComment))

	got, err := h.comments.GetCommentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	inbox := h.inbox(t, "b")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.ActionLikeComment, inbox[0].ActionType)
	assert.Equal(t, c.ID, inbox[0].TargetID)

	post, err := h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, post.LikeCount, "comment likes do not touch the post")
}

func TestLikeUnknownTargets(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	assert.ErrorIs(t, h.engagement.Like(ctx, "a", "nope", models.TargetPost), ErrPostNotFound)
	assert.ErrorIs(t, h.engagement.Like(ctx, "a", "nope", models.TargetComment), ErrCommentNotFound)
	assert.ErrorIs(t, h.engagement.Like(ctx, "a", "nope", models.TargetUser), ErrInvalidTarget)
	assert.ErrorIs(t, h.engagement.Unlike(ctx, "a", "nope", models.TargetUser), ErrInvalidTarget)
}

func TestCreateCommentNotifiesPostOwner(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	p := h.post(t, "a")

	c, err := h.engagement.CreateComment(ctx, "b", p.ID, &models.CreateCommentRequest{Text: "oi"})
	require.NoError(t, err)
	assert.Nil(t, c.ParentCommentID)

	got, err := h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	inbox := h.inbox(t, "a")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.ActionComment, inbox[0].ActionType)
	assert.Equal(t, "b", inbox[0].ActorID)
	assert.Equal(t, "oi", inbox[0].Text)
	assert.False(t, inbox[0].IsRead)
}

func TestCreateReplyValidatesParent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	p1 := h.post(t, "a")
	p2 := h.post(t, "a")
	top, err := h.engagement.CreateComment(ctx, "a", p1.ID, &models.CreateCommentRequest{Text: "top"})
	require.NoError(t, err)

	reply, err := h.engagement.CreateComment(ctx, "a", p1.ID, &models.CreateCommentRequest{Text: "reply", ParentCommentID: &top.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, top.ID, *reply.ParentCommentID)

	_, err = h.engagement.CreateComment(ctx, "a", p2.ID, &models.CreateCommentRequest{Text: "x", ParentCommentID: &top.ID})
	assert.ErrorIs(t, err, ErrInvalidParent)
	_, err = h.engagement.CreateComment(ctx, "a", "missing", &models.CreateCommentRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	replies, err := h.feed.Replies(ctx, top.ID, 10)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "ana", replies[0].User.Username)
}

func TestDeleteCommentPermissionsAndCascade(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	h.user(t, "c", "carla", "")
	p := h.post(t, "a")
	c, err := h.engagement.CreateComment(ctx, "b", p.ID, &models.CreateCommentRequest{Text: "hey"})
	require.NoError(t, err)
	require.NoError(t, h.engagement.Like(ctx, "c", c.ID, models.TargetComment))

	assert.ErrorIs(t, h.engagement.DeleteComment(ctx, "c", c.ID), ErrForbidden)
	require.NoError(t, h.engagement.DeleteComment(ctx, "a", c.ID), "post owner may delete")
	assert.ErrorIs(t, h.engagement.DeleteComment(ctx, "a", c.ID), ErrCommentNotFound)

	got, err := h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CommentCount)
	assert.Empty(t, h.inbox(t, "a"), "comment activity is removed with the comment")
	assert.Empty(t, h.inbox(t, "b"), "comment like activity is removed with the comment")
}

func TestCreatePostMentions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	h.user(t, "c", "carla", "")

	p := h.post(t, "a", "@Bruno", "carla", "bruno", "ghost", " ")
	assert.Equal(t, []string{"bruno", "carla", "ghost"}, p.Tags)
	assert.True(t, p.IsPublic)
	assert.Equal(t, 1, h.reload(t, "a").PostsCount)

	for _, id := range []string{"b", "c"} {
		inbox := h.inbox(t, id)
		require.Len(t, inbox, 1, id)
		assert.Equal(t, models.ActionMention, inbox[0].ActionType)
		assert.Equal(t, p.ID, inbox[0].TargetID)
		assert.Equal(t, models.TargetPost, inbox[0].TargetType)
	}

	tagged, err := h.feed.TaggedPosts(ctx, "Carla", 10)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "ana", tagged[0].User.Username)
}

func TestDeletePostCascadesActivities(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	h.user(t, "b", "bruno", "")
	keep := h.post(t, "a")
	p := h.post(t, "a", "bruno")
	require.NoError(t, h.engagement.Like(ctx, "b", p.ID, models.TargetPost))
	require.NoError(t, h.engagement.Like(ctx, "b", keep.ID, models.TargetPost))
	require.NoError(t, h.graph.Follow(ctx, "b", "a"))

	assert.ErrorIs(t, h.engagement.DeletePost(ctx, "b", p.ID), ErrForbidden)
	require.NoError(t, h.engagement.DeletePost(ctx, "a", p.ID))

	gone, err := h.posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Equal(t, 1, h.reload(t, "a").PostsCount)

	for _, id := range []string{"a", "b"} {
		for _, act := range h.inbox(t, id) {
			assert.False(t, act.TargetID == p.ID && act.TargetType == models.TargetPost)
		}
	}
	assert.ElementsMatch(t, []models.ActionType{models.ActionLike, models.ActionFollow}, actions(h.inbox(t, "a")))
	assert.Empty(t, h.inbox(t, "b"))
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.user(t, "a", "ana", "")
	p := h.post(t, "a")

	caption := "sunset"
	private := false
	updated, err := h.engagement.UpdatePost(ctx, "a", p.ID, &models.UpdatePostRequest{Caption: &caption, IsPublic: &private})
	require.NoError(t, err)
	assert.Equal(t, "sunset", updated.Caption)
	assert.False(t, updated.IsPublic)

	_, err = h.engagement.UpdatePost(ctx, "b", p.ID, &models.UpdatePostRequest{Caption: &caption})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"ana", "bia"}, NormalizeTags([]string{"@Ana", "", "bia", "ANA"}))
	assert.Empty(t, NormalizeTags(nil))
}
