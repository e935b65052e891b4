package services

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const followingScanPage = 100

// SocialGraph maintains follow edges as mirrored records plus the
// followersCount/followingCount counters of both users.
type SocialGraph struct {
	users      repositories.UserRepository
	follows    repositories.FollowRepository
	activities *ActivityService
	logger     *logger.Logger
	now        func() time.Time
}

func NewSocialGraph(users repositories.UserRepository, follows repositories.FollowRepository, activities *ActivityService, logger *logger.Logger) *SocialGraph {
	return &SocialGraph{
		users:      users,
		follows:    follows,
		activities: activities,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Follow creates the edge follower -> followed. Both mirror records are
// keyed by the opposite party, so following twice is a no-op instead of a
// double count.
func (g *SocialGraph) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return ErrCannotFollowSelf
	}
	followed, err := g.users.GetUserByID(ctx, followedID)
	if err != nil {
		return err
	}
	if followed == nil {
		return ErrUserNotFound
	}

	record := &models.FollowRecord{FollowerID: followerID, FollowedID: followedID, FollowedAt: g.now()}
	err = g.follows.AddFollower(ctx, record)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// Repair a missing following mirror left by an interrupted call.
		if err := g.follows.AddFollowing(ctx, record); err != nil && !errors.Is(err, docstore.ErrAlreadyExists) {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}
	if err := g.follows.AddFollowing(ctx, record); err != nil && !errors.Is(err, docstore.ErrAlreadyExists) {
		return err
	}

	if err := g.users.AdjustFollowersCount(ctx, followedID, 1); err != nil {
		return err
	}
	if err := g.users.AdjustFollowingCount(ctx, followerID, 1); err != nil {
		return err
	}
	if err := g.activities.Emit(ctx, followedID, followerID, models.ActionFollow, followedID, models.TargetUser, ""); err != nil {
		return err
	}

	g.logger.WithFields(logrus.Fields{
		"follower_id": followerID,
		"followed_id": followedID,
	}).Info("User followed")
	return nil
}

// Unfollow removes every mirror record of the edge and decrements each
// counter whose mirror actually existed.
func (g *SocialGraph) Unfollow(ctx context.Context, followerID, followedID string) error {
	removedFollowers, err := g.follows.RemoveFollower(ctx, followedID, followerID)
	if err != nil {
		return err
	}
	removedFollowing, err := g.follows.RemoveFollowing(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if removedFollowers > 0 {
		if err := g.users.AdjustFollowersCount(ctx, followedID, -removedFollowers); err != nil {
			return err
		}
	}
	if removedFollowing > 0 {
		if err := g.users.AdjustFollowingCount(ctx, followerID, -removedFollowing); err != nil {
			return err
		}
	}
	if removedFollowers+removedFollowing > 0 {
		g.logger.WithFields(logrus.Fields{
			"follower_id": followerID,
			"followed_id": followedID,
		}).Info("User unfollowed")
	}
	return nil
}

// IsFollowing checks the followers mirror of followedID.
func (g *SocialGraph) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return g.follows.IsFollower(ctx, followedID, followerID)
}

// GetFollowers returns the users following userID, most recent first.
func (g *SocialGraph) GetFollowers(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*repositories.Page[models.User], error) {
	page, err := g.follows.GetFollowers(ctx, userID, after, limit)
	if err != nil {
		return nil, err
	}
	return g.resolve(ctx, page, func(r *models.FollowRecord) string { return r.FollowerID })
}

// GetFollowing returns the users userID follows, most recent first.
func (g *SocialGraph) GetFollowing(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*repositories.Page[models.User], error) {
	page, err := g.follows.GetFollowing(ctx, userID, after, limit)
	if err != nil {
		return nil, err
	}
	return g.resolve(ctx, page, func(r *models.FollowRecord) string { return r.FollowedID })
}

// FollowingIDs walks the whole following mirror of userID.
func (g *SocialGraph) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var (
		ids   []string
		after *docstore.Cursor
	)
	for {
		page, err := g.follows.GetFollowing(ctx, userID, after, followingScanPage)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Items {
			ids = append(ids, r.FollowedID)
		}
		if !page.HasMore {
			return ids, nil
		}
		after = page.Next
	}
}

func (g *SocialGraph) resolve(ctx context.Context, page *repositories.Page[models.FollowRecord], key func(*models.FollowRecord) string) (*repositories.Page[models.User], error) {
	users, err := g.users.GetUsersByIDs(ctx, collectKeys(page.Items, key))
	if err != nil {
		return nil, err
	}
	return &repositories.Page[models.User]{Items: users, Next: page.Next, HasMore: page.HasMore}, nil
}
