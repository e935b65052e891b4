package repositories

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
)

const CollectionLikes = "likes"

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	FindLike(ctx context.Context, userID, targetID string, targetType models.TargetType) (*models.Like, error)
	CreateLike(ctx context.Context, like *models.Like) (*models.Like, error)
	DeleteLikes(ctx context.Context, userID, targetID string, targetType models.TargetType) (int, error)
	GetLikesByTarget(ctx context.Context, targetID string, targetType models.TargetType, limit int) ([]*models.Like, error)
	GetLikesByUser(ctx context.Context, userID string, targetType models.TargetType, limit int) ([]*models.Like, error)
	CountLikes(ctx context.Context, targetID string, targetType models.TargetType) (int, error)
}

// DocumentLikeRepository implements LikeRepository on a docstore.Store
type DocumentLikeRepository struct {
	repo *Repository[models.Like]
}

// NewDocumentLikeRepository creates a new DocumentLikeRepository
func NewDocumentLikeRepository(store docstore.Store) *DocumentLikeRepository {
	return &DocumentLikeRepository{repo: NewRepository[models.Like](store, CollectionLikes)}
}

func tupleFilters(userID, targetID string, targetType models.TargetType) []docstore.Filter {
	return []docstore.Filter{
		docstore.Where("userId", docstore.OpEqual, userID),
		docstore.Where("targetId", docstore.OpEqual, targetID),
		docstore.Where("targetType", docstore.OpEqual, targetType),
	}
}

func (r *DocumentLikeRepository) FindLike(ctx context.Context, userID, targetID string, targetType models.TargetType) (*models.Like, error) {
	return r.repo.FindOne(ctx, docstore.Query{Where: tupleFilters(userID, targetID, targetType)})
}

// CreateLike stores the like under its tuple id, so a second like for the
// same tuple fails with docstore.ErrAlreadyExists.
func (r *DocumentLikeRepository) CreateLike(ctx context.Context, like *models.Like) (*models.Like, error) {
	return r.repo.CreateWithID(ctx, models.LikeID(like.UserID, like.TargetID, like.TargetType), like)
}

// DeleteLikes removes every like of the tuple and reports how many there were.
func (r *DocumentLikeRepository) DeleteLikes(ctx context.Context, userID, targetID string, targetType models.TargetType) (int, error) {
	likes, err := r.repo.Find(ctx, docstore.Query{Where: tupleFilters(userID, targetID, targetType)})
	if err != nil || len(likes) == 0 {
		return 0, err
	}
	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.ID
	}
	if err := r.repo.DeleteBatch(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *DocumentLikeRepository) GetLikesByTarget(ctx context.Context, targetID string, targetType models.TargetType, limit int) ([]*models.Like, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("targetId", docstore.OpEqual, targetID),
			docstore.Where("targetType", docstore.OpEqual, targetType),
		},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
		Limit:   limit,
	})
}

func (r *DocumentLikeRepository) GetLikesByUser(ctx context.Context, userID string, targetType models.TargetType, limit int) ([]*models.Like, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("userId", docstore.OpEqual, userID),
			docstore.Where("targetType", docstore.OpEqual, targetType),
		},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
		Limit:   limit,
	})
}

func (r *DocumentLikeRepository) CountLikes(ctx context.Context, targetID string, targetType models.TargetType) (int, error) {
	return r.repo.Count(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("targetId", docstore.OpEqual, targetID),
			docstore.Where("targetType", docstore.OpEqual, targetType),
		},
	})
}
