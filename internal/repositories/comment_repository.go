package repositories

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
)

const CollectionComments = "comments"

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	GetCommentsByPost(ctx context.Context, postID string, after *docstore.Cursor, limit int) (*Page[models.Comment], error)
	GetReplies(ctx context.Context, parentID string, limit int) ([]*models.Comment, error)
	GetCommentsByUser(ctx context.Context, userID string, limit int) ([]*models.Comment, error)
	AdjustLikeCount(ctx context.Context, id string, delta int) error
}

// DocumentCommentRepository implements CommentRepository on a docstore.Store
type DocumentCommentRepository struct {
	repo *Repository[models.Comment]
}

// NewDocumentCommentRepository creates a new DocumentCommentRepository
func NewDocumentCommentRepository(store docstore.Store) *DocumentCommentRepository {
	return &DocumentCommentRepository{repo: NewRepository[models.Comment](store, CollectionComments)}
}

func (r *DocumentCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	return r.repo.Create(ctx, comment)
}

func (r *DocumentCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *DocumentCommentRepository) GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *DocumentCommentRepository) DeleteComment(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// GetCommentsByPost lists the top-level comments of a post, newest first.
func (r *DocumentCommentRepository) GetCommentsByPost(ctx context.Context, postID string, after *docstore.Cursor, limit int) (*Page[models.Comment], error) {
	return r.repo.FindPage(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("postId", docstore.OpEqual, postID),
			docstore.Where("parentCommentId", docstore.OpEqual, nil),
		},
		OrderBy:    []docstore.Order{docstore.Desc(fieldCreatedAt)},
		StartAfter: after,
	}, limit)
}

// GetReplies lists the replies to a comment in conversation order.
func (r *DocumentCommentRepository) GetReplies(ctx context.Context, parentID string, limit int) ([]*models.Comment, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where:   []docstore.Filter{docstore.Where("parentCommentId", docstore.OpEqual, parentID)},
		OrderBy: []docstore.Order{docstore.Asc(fieldCreatedAt)},
		Limit:   limit,
	})
}

func (r *DocumentCommentRepository) GetCommentsByUser(ctx context.Context, userID string, limit int) ([]*models.Comment, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where:   []docstore.Filter{docstore.Where("userId", docstore.OpEqual, userID)},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
		Limit:   limit,
	})
}

func (r *DocumentCommentRepository) AdjustLikeCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldLikeCount, delta)
}
