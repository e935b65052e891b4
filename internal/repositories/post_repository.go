package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const CollectionPosts = "posts"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id string, fields docstore.Fields) error
	DeletePost(ctx context.Context, id string) error
	GetPostsByUser(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.Post], error)
	GetPublicPosts(ctx context.Context, after *docstore.Cursor, limit int) (*Page[models.Post], error)
	GetFeedPosts(ctx context.Context, userIDs []string, before time.Time, limit int) ([]*models.Post, error)
	GetPostsByTag(ctx context.Context, tag string, limit int) ([]*models.Post, error)
	GetPostsByTags(ctx context.Context, tags []string, limit int) ([]*models.Post, error)
	GetPopularPosts(ctx context.Context, limit int) ([]*models.Post, error)
	AdjustLikeCount(ctx context.Context, id string, delta int) error
	AdjustCommentCount(ctx context.Context, id string, delta int) error
}

// DocumentPostRepository implements PostRepository on a docstore.Store
type DocumentPostRepository struct {
	repo *Repository[models.Post]
}

// NewDocumentPostRepository creates a new DocumentPostRepository
func NewDocumentPostRepository(store docstore.Store) *DocumentPostRepository {
	return &DocumentPostRepository{repo: NewRepository[models.Post](store, CollectionPosts)}
}

func (r *DocumentPostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	return r.repo.Create(ctx, post)
}

func (r *DocumentPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *DocumentPostRepository) GetPostsByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *DocumentPostRepository) UpdatePost(ctx context.Context, id string, fields docstore.Fields) error {
	return r.repo.Update(ctx, id, fields)
}

func (r *DocumentPostRepository) DeletePost(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// GetPostsByUser lists a user's posts, newest first.
func (r *DocumentPostRepository) GetPostsByUser(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.Post], error) {
	return r.repo.FindPage(ctx, docstore.Query{
		Where:      []docstore.Filter{docstore.Where("userId", docstore.OpEqual, userID)},
		OrderBy:    []docstore.Order{docstore.Desc(fieldCreatedAt)},
		StartAfter: after,
	}, limit)
}

func (r *DocumentPostRepository) GetPublicPosts(ctx context.Context, after *docstore.Cursor, limit int) (*Page[models.Post], error) {
	return r.repo.FindPage(ctx, docstore.Query{
		Where:      []docstore.Filter{docstore.Where("isPublic", docstore.OpEqual, true)},
		OrderBy:    []docstore.Order{docstore.Desc(fieldCreatedAt)},
		StartAfter: after,
	}, limit)
}

// GetFeedPosts returns the newest public posts authored by userIDs and
// created before the given time (zero means now). The "in" filter is split
// into chunks that run concurrently and are merged by createdAt.
func (r *DocumentPostRepository) GetFeedPosts(ctx context.Context, userIDs []string, before time.Time, limit int) ([]*models.Post, error) {
	authors := dedupe(userIDs)
	if len(authors) == 0 || limit <= 0 {
		return nil, nil
	}
	chunks := chunk(authors, maxInValues)
	results := make([][]*models.Post, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			q := docstore.Query{
				Where: []docstore.Filter{
					docstore.Where("userId", docstore.OpIn, c),
					docstore.Where("isPublic", docstore.OpEqual, true),
				},
				OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
				Limit:   limit,
			}
			if !before.IsZero() {
				q.Where = append(q.Where, docstore.Where(fieldCreatedAt, docstore.OpLess, before))
			}
			posts, err := r.repo.Find(gctx, q)
			results[i] = posts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []*models.Post
	for _, posts := range results {
		merged = append(merged, posts...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID > merged[j].ID
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// GetPostsByTag returns public posts mentioning tag, newest first.
func (r *DocumentPostRepository) GetPostsByTag(ctx context.Context, tag string, limit int) ([]*models.Post, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("tags", docstore.OpArrayContains, tag),
			docstore.Where("isPublic", docstore.OpEqual, true),
		},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
		Limit:   limit,
	})
}

// GetPostsByTags returns public posts mentioning any of tags.
func (r *DocumentPostRepository) GetPostsByTags(ctx context.Context, tags []string, limit int) ([]*models.Post, error) {
	tags = dedupe(tags)
	if len(tags) == 0 {
		return nil, nil
	}
	if len(tags) > maxInValues {
		tags = tags[:maxInValues]
	}
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("tags", docstore.OpArrayContainsAny, tags),
			docstore.Where("isPublic", docstore.OpEqual, true),
		},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
		Limit:   limit,
	})
}

func (r *DocumentPostRepository) GetPopularPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where:   []docstore.Filter{docstore.Where("isPublic", docstore.OpEqual, true)},
		OrderBy: []docstore.Order{docstore.Desc(models.FieldLikeCount)},
		Limit:   limit,
	})
}

func (r *DocumentPostRepository) AdjustLikeCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldLikeCount, delta)
}

func (r *DocumentPostRepository) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldCommentCount, delta)
}
