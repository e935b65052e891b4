package repositories

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
)

const CollectionActivities = "activities"

// ActivityRepository defines the interface for activity data operations
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity *models.Activity) (*models.Activity, error)
	GetActivitiesByIDs(ctx context.Context, ids []string) ([]*models.Activity, error)
	GetActivitiesByUser(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.Activity], error)
	GetUnreadActivities(ctx context.Context, userID string, limit int) ([]*models.Activity, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, ids []string) error
	DeleteByTarget(ctx context.Context, targetID string, targetType models.TargetType) (int, error)
	SubscribeUnread(ctx context.Context, userID string, fn func([]*models.Activity, error)) (docstore.Unsubscribe, error)
}

// DocumentActivityRepository implements ActivityRepository on a docstore.Store
type DocumentActivityRepository struct {
	repo *Repository[models.Activity]
}

// NewDocumentActivityRepository creates a new DocumentActivityRepository
func NewDocumentActivityRepository(store docstore.Store) *DocumentActivityRepository {
	return &DocumentActivityRepository{repo: NewRepository[models.Activity](store, CollectionActivities)}
}

// CreateActivity stores a new, unread activity.
func (r *DocumentActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	activity.IsRead = false
	return r.repo.Create(ctx, activity)
}

func (r *DocumentActivityRepository) GetActivitiesByIDs(ctx context.Context, ids []string) ([]*models.Activity, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *DocumentActivityRepository) GetActivitiesByUser(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*Page[models.Activity], error) {
	return r.repo.FindPage(ctx, docstore.Query{
		Where:      []docstore.Filter{docstore.Where("userId", docstore.OpEqual, userID)},
		OrderBy:    []docstore.Order{docstore.Desc(fieldCreatedAt)},
		StartAfter: after,
	}, limit)
}

func unreadQuery(userID string) docstore.Query {
	return docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("userId", docstore.OpEqual, userID),
			docstore.Where("isRead", docstore.OpEqual, false),
		},
		OrderBy: []docstore.Order{docstore.Desc(fieldCreatedAt)},
	}
}

func (r *DocumentActivityRepository) GetUnreadActivities(ctx context.Context, userID string, limit int) ([]*models.Activity, error) {
	q := unreadQuery(userID)
	q.Limit = limit
	return r.repo.Find(ctx, q)
}

func (r *DocumentActivityRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	return r.repo.Count(ctx, unreadQuery(userID))
}

// MarkAsRead flips isRead on the given activities in batches.
func (r *DocumentActivityRepository) MarkAsRead(ctx context.Context, ids []string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	patches := make([]Patch, len(ids))
	for i, id := range ids {
		patches[i] = Patch{ID: id, Fields: docstore.Fields{"isRead": true}}
	}
	return r.repo.UpdateBatch(ctx, patches)
}

// DeleteByTarget removes every activity pointing at the target and reports
// how many were removed.
func (r *DocumentActivityRepository) DeleteByTarget(ctx context.Context, targetID string, targetType models.TargetType) (int, error) {
	activities, err := r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("targetId", docstore.OpEqual, targetID),
			docstore.Where("targetType", docstore.OpEqual, targetType),
		},
	})
	if err != nil || len(activities) == 0 {
		return 0, err
	}
	ids := make([]string, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}
	if err := r.repo.DeleteBatch(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *DocumentActivityRepository) SubscribeUnread(ctx context.Context, userID string, fn func([]*models.Activity, error)) (docstore.Unsubscribe, error) {
	return r.repo.Subscribe(ctx, unreadQuery(userID), fn)
}
