package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store      docstore.Store
	users      *repositories.DocumentUserRepository
	posts      *repositories.DocumentPostRepository
	comments   *repositories.DocumentCommentRepository
	likes      *repositories.DocumentLikeRepository
	activities *repositories.DocumentActivityRepository
	follows    *repositories.DocumentFollowRepository

	activity   *ActivityService
	graph      *SocialGraph
	engagement *Engagement
	profiles   *UserService
	feed       *FeedService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, docstore.NewMemoryStore())
}

func newHarnessOn(t *testing.T, store docstore.Store) *harness {
	t.Helper()
	log := logger.Discard()
	h := &harness{
		store:      store,
		users:      repositories.NewDocumentUserRepository(store),
		posts:      repositories.NewDocumentPostRepository(store),
		comments:   repositories.NewDocumentCommentRepository(store),
		likes:      repositories.NewDocumentLikeRepository(store),
		activities: repositories.NewDocumentActivityRepository(store),
		follows:    repositories.NewDocumentFollowRepository(store),
	}
	h.activity = NewActivityService(h.activities, h.users, h.posts, h.comments, log)
	h.graph = NewSocialGraph(h.users, h.follows, h.activity, log)
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h.graph.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	h.engagement = NewEngagement(h.users, h.posts, h.comments, h.likes, h.activity, log)
	h.profiles = NewUserService(h.users, search.NewMatcher(h.users, search.Options{}), log)
	h.feed = NewFeedService(h.users, h.posts, h.comments, h.likes, h.graph)
	return h
}

func (h *harness) user(t *testing.T, id, username, displayName string) *models.User {
	t.Helper()
	u, err := h.profiles.CreateProfile(context.Background(), id, id+"@example.com", &models.CreateUserRequest{
		Username:    username,
		DisplayName: displayName,
	})
	require.NoError(t, err)
	return u
}

func (h *harness) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := h.users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (h *harness) post(t *testing.T, userID string, tags ...string) *models.Post {
	t.Helper()
	p, err := h.engagement.CreatePost(context.Background(), userID, &models.CreatePostRequest{
		ImageURL: "https://img.example.com/" + userID + ".jpg",
		Tags:     tags,
	})
	require.NoError(t, err)
	return p
}

func (h *harness) inbox(t *testing.T, userID string) []*models.Activity {
	t.Helper()
	page, err := h.activities.GetActivitiesByUser(context.Background(), userID, nil, 100)
	require.NoError(t, err)
	return page.Items
}

func actions(activities []*models.Activity) []models.ActionType {
	out := make([]models.ActionType, len(activities))
	for i, a := range activities {
		out[i] = a.ActionType
	}
	return out
}
