package repositories

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
)

const (
	subFollowers = "followers"
	subFollowing = "following"
)

// FollowRepository defines the interface for the mirrored follow records
// kept under users/{id}/followers and users/{id}/following.
type FollowRepository interface {
	AddFollower(ctx context.Context, record *models.FollowRecord) error
	AddFollowing(ctx context.Context, record *models.FollowRecord) error
	RemoveFollower(ctx context.Context, followedID, followerID string) (int, error)
	RemoveFollowing(ctx context.Context, followerID, followedID string) (int, error)
	IsFollower(ctx context.Context, followedID, followerID string) (bool, error)
	GetFollowers(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.FollowRecord], error)
	GetFollowing(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.FollowRecord], error)
}

// DocumentFollowRepository implements FollowRepository on a docstore.Store
type DocumentFollowRepository struct {
	store docstore.Store
}

// NewDocumentFollowRepository creates a new DocumentFollowRepository
func NewDocumentFollowRepository(store docstore.Store) *DocumentFollowRepository {
	return &DocumentFollowRepository{store: store}
}

func (r *DocumentFollowRepository) mirror(userID, side string) *Repository[models.FollowRecord] {
	return NewRepository[models.FollowRecord](r.store, docstore.Path(CollectionUsers, userID, side))
}

// AddFollower writes users/{followedId}/followers/{followerId}. It returns
// docstore.ErrAlreadyExists if the record is already there.
func (r *DocumentFollowRepository) AddFollower(ctx context.Context, record *models.FollowRecord) error {
	_, err := r.mirror(record.FollowedID, subFollowers).CreateWithID(ctx, record.FollowerID, record)
	return err
}

// AddFollowing writes users/{followerId}/following/{followedId}.
func (r *DocumentFollowRepository) AddFollowing(ctx context.Context, record *models.FollowRecord) error {
	_, err := r.mirror(record.FollowerID, subFollowing).CreateWithID(ctx, record.FollowedID, record)
	return err
}

func (r *DocumentFollowRepository) RemoveFollower(ctx context.Context, followedID, followerID string) (int, error) {
	return removeMatching(ctx, r.mirror(followedID, subFollowers), "followerId", followerID)
}

func (r *DocumentFollowRepository) RemoveFollowing(ctx context.Context, followerID, followedID string) (int, error) {
	return removeMatching(ctx, r.mirror(followerID, subFollowing), "followedId", followedID)
}

// removeMatching deletes every mirror record whose field equals value,
// including duplicates left by older writers that used generated ids.
func removeMatching(ctx context.Context, repo *Repository[models.FollowRecord], field, value string) (int, error) {
	records, err := repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{docstore.Where(field, docstore.OpEqual, value)},
	})
	if err != nil || len(records) == 0 {
		return 0, err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := repo.DeleteBatch(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// IsFollower checks the followers mirror of followedID only.
func (r *DocumentFollowRepository) IsFollower(ctx context.Context, followedID, followerID string) (bool, error) {
	rec, err := r.mirror(followedID, subFollowers).FindOne(ctx, docstore.Query{
		Where: []docstore.Filter{docstore.Where("followerId", docstore.OpEqual, followerID)},
	})
	return rec != nil, err
}

func (r *DocumentFollowRepository) GetFollowers(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.FollowRecord], error) {
	return r.mirror(userID, subFollowers).FindPage(ctx, recentFirst(after), limit)
}

func (r *DocumentFollowRepository) GetFollowing(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.FollowRecord], error) {
	return r.mirror(userID, subFollowing).FindPage(ctx, recentFirst(after), limit)
}

func recentFirst(after *docstore.Cursor) docstore.Query {
	return docstore.Query{
		OrderBy:    []docstore.Order{docstore.Desc("followedAt")},
		StartAfter: after,
	}
}
