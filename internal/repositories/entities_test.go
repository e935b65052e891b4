package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	users := NewDocumentUserRepository(docstore.NewMemoryStore())

	for id, name := range map[string]string{"u1": "ana", "u2": "anabel", "u3": "bruno"} {
		_, err := users.CreateUser(ctx, id, &models.User{Username: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	u, err := users.GetUserByUsername(ctx, "bruno")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u3", u.ID)

	u, err = users.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	prefixed, err := users.SearchByUsernamePrefix(ctx, "ana", 10)
	require.NoError(t, err)
	require.Len(t, prefixed, 2)
	assert.Equal(t, "ana", prefixed[0].Username)
	assert.Equal(t, "anabel", prefixed[1].Username)

	require.NoError(t, users.AdjustFollowersCount(ctx, "u1", 1))
	require.NoError(t, users.AdjustFollowersCount(ctx, "u1", -3))
	u, err = users.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.FollowersCount)
}

func TestUserRepositorySubscribeUser(t *testing.T) {
	ctx := context.Background()
	users := NewDocumentUserRepository(docstore.NewMemoryStore())

	var seen []interface{}
	unsub, err := users.SubscribeUser(ctx, "u1", func(u *models.User, err error) {
		require.NoError(t, err)
		if u == nil {
			seen = append(seen, nil)
			return
		}
		seen = append(seen, u.FollowersCount)
	})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, "u1", &models.User{Username: "ana"})
	require.NoError(t, err)
	require.NoError(t, users.AdjustFollowersCount(ctx, "u1", 2))
	unsub()
	require.NoError(t, users.AdjustFollowersCount(ctx, "u1", 1))

	assert.Equal(t, []interface{}{nil, 0, 2}, seen)
}

func TestUserRepositoryFindByAnyGram(t *testing.T) {
	ctx := context.Background()
	users := NewDocumentUserRepository(docstore.NewMemoryStore())
	_, err := users.CreateUser(ctx, "u1", &models.User{Username: "ana", SearchGrams2: []string{"an", "na"}})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, "u2", &models.User{Username: "bo", SearchGrams2: []string{"bo"}})
	require.NoError(t, err)

	found, err := users.FindByAnyGram(ctx, "searchGrams2", []string{"na", "zz"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u1", found[0].ID)
	assert.Equal(t, []string{"an", "na"}, found[0].SearchGrams2)
}

func TestPostRepositoryFeed(t *testing.T) {
	ctx := context.Background()
	posts := NewDocumentPostRepository(docstore.NewMemoryStore())
	posts.repo.now = fixedClock()

	mk := func(user string, public bool) string {
		p, err := posts.CreatePost(ctx, &models.Post{UserID: user, IsPublic: public, Tags: []string{"ana"}})
		require.NoError(t, err)
		return p.ID
	}
	a1 := mk("a", true)
	b1 := mk("b", true)
	mk("c", true)
	mk("a", false)
	b2 := mk("b", true)

	feed, err := posts.GetFeedPosts(ctx, []string{"a", "b", "a"}, time.Time{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{b2, b1, a1}, postIDs(feed))

	limited, err := posts.GetFeedPosts(ctx, []string{"a", "b"}, time.Time{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{b2, b1}, postIDs(limited))

	b1Post, err := posts.GetPostByID(ctx, b1)
	require.NoError(t, err)
	older, err := posts.GetFeedPosts(ctx, []string{"a", "b"}, b1Post.CreatedAt, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{a1}, postIDs(older))

	tagged, err := posts.GetPostsByTag(ctx, "ana", 10)
	require.NoError(t, err)
	assert.Len(t, tagged, 4)

	page, err := posts.GetPostsByUser(ctx, "a", nil, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
}

func TestPostRepositoryPopular(t *testing.T) {
	ctx := context.Background()
	posts := NewDocumentPostRepository(docstore.NewMemoryStore())
	low, err := posts.CreatePost(ctx, &models.Post{UserID: "a", IsPublic: true})
	require.NoError(t, err)
	high, err := posts.CreatePost(ctx, &models.Post{UserID: "a", IsPublic: true})
	require.NoError(t, err)
	require.NoError(t, posts.AdjustLikeCount(ctx, high.ID, 3))

	popular, err := posts.GetPopularPosts(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID, low.ID}, postIDs(popular))
}

func TestCommentRepositoryThreads(t *testing.T) {
	ctx := context.Background()
	comments := NewDocumentCommentRepository(docstore.NewMemoryStore())
	comments.repo.now = fixedClock()

	top, err := comments.CreateComment(ctx, &models.Comment{PostID: "p1", UserID: "u1", Text: "first"})
	require.NoError(t, err)
	parent := top.ID
	r1, err := comments.CreateComment(ctx, &models.Comment{PostID: "p1", UserID: "u2", Text: "reply 1", ParentCommentID: &parent})
	require.NoError(t, err)
	r2, err := comments.CreateComment(ctx, &models.Comment{PostID: "p1", UserID: "u3", Text: "reply 2", ParentCommentID: &parent})
	require.NoError(t, err)
	second, err := comments.CreateComment(ctx, &models.Comment{PostID: "p1", UserID: "u2", Text: "second"})
	require.NoError(t, err)

	page, err := comments.GetCommentsByPost(ctx, "p1", nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, top.ID, page.Items[1].ID)
	assert.Nil(t, page.Items[1].ParentCommentID)

	replies, err := comments.GetReplies(ctx, parent, 10)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, r1.ID, replies[0].ID)
	assert.Equal(t, r2.ID, replies[1].ID)
	assert.Equal(t, parent, *replies[0].ParentCommentID)

	mine, err := comments.GetCommentsByUser(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestLikeRepositoryTupleIsUnique(t *testing.T) {
	ctx := context.Background()
	likes := NewDocumentLikeRepository(docstore.NewMemoryStore())

	like := &models.Like{UserID: "u1", TargetID: "p1", TargetType: models.TargetPost}
	created, err := likes.CreateLike(ctx, like)
	require.NoError(t, err)
	assert.Equal(t, models.LikeID("u1", "p1", models.TargetPost), created.ID)

	_, err = likes.CreateLike(ctx, like)
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	found, err := likes.FindLike(ctx, "u1", "p1", models.TargetPost)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.TargetPost, found.TargetType)

	other, err := likes.FindLike(ctx, "u1", "p1", models.TargetComment)
	require.NoError(t, err)
	assert.Nil(t, other)

	n, err := likes.CountLikes(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := likes.DeleteLikes(ctx, "u1", "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	removed, err = likes.DeleteLikes(ctx, "u1", "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestActivityRepositoryReadState(t *testing.T) {
	ctx := context.Background()
	activities := NewDocumentActivityRepository(docstore.NewMemoryStore())

	a1, err := activities.CreateActivity(ctx, &models.Activity{UserID: "u1", ActorID: "u2", ActionType: models.ActionFollow, TargetID: "u2", TargetType: models.TargetUser})
	require.NoError(t, err)
	_, err = activities.CreateActivity(ctx, &models.Activity{UserID: "u1", ActorID: "u3", ActionType: models.ActionLike, TargetID: "p1", TargetType: models.TargetPost})
	require.NoError(t, err)
	_, err = activities.CreateActivity(ctx, &models.Activity{UserID: "u1", ActorID: "u3", ActionType: models.ActionComment, TargetID: "p1", TargetType: models.TargetPost, Text: "oi"})
	require.NoError(t, err)

	var counts []int
	unsub, err := activities.SubscribeUnread(ctx, "u1", func(items []*models.Activity, err error) {
		require.NoError(t, err)
		counts = append(counts, len(items))
	})
	require.NoError(t, err)
	defer unsub()

	n, err := activities.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, activities.MarkAsRead(ctx, []string{a1.ID, a1.ID}))
	n, err = activities.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := activities.DeleteByTarget(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	page, err := activities.GetActivitiesByUser(ctx, "u1", nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsRead)

	assert.Equal(t, []int{3, 2, 0}, counts)
}

func TestFollowRepositoryMirrors(t *testing.T) {
	ctx := context.Background()
	follows := NewDocumentFollowRepository(docstore.NewMemoryStore())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, follower := range []string{"b", "c"} {
		rec := &models.FollowRecord{FollowerID: follower, FollowedID: "a", FollowedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, follows.AddFollower(ctx, rec))
		require.NoError(t, follows.AddFollowing(ctx, rec))
	}
	err := follows.AddFollower(ctx, &models.FollowRecord{FollowerID: "b", FollowedID: "a", FollowedAt: base})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	ok, err := follows.IsFollower(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = follows.IsFollower(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	page, err := follows.GetFollowers(ctx, "a", nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].FollowerID)
	assert.Equal(t, "b", page.Items[1].FollowerID)
	assert.Equal(t, "b", page.Items[1].ID)

	following, err := follows.GetFollowing(ctx, "b", nil, 10)
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, "a", following.Items[0].FollowedID)

	removed, err := follows.RemoveFollower(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	removed, err = follows.RemoveFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	removed, err = follows.RemoveFollower(ctx, "a", "b")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
