package services

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultActivityLimit = 50

// ActivityService writes per-recipient activity records and reads them
// back joined with their actor and target.
type ActivityService struct {
	activities repositories.ActivityRepository
	users      repositories.UserRepository
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	logger     *logger.Logger
}

func NewActivityService(activities repositories.ActivityRepository, users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		users:      users,
		posts:      posts,
		comments:   comments,
		logger:     logger,
	}
}

// Emit records one activity for recipient.
func (s *ActivityService) Emit(ctx context.Context, recipient, actor string, action models.ActionType, targetID string, targetType models.TargetType, text string) error {
	a, err := s.activities.CreateActivity(ctx, &models.Activity{
		UserID:     recipient,
		ActorID:    actor,
		ActionType: action,
		TargetID:   targetID,
		TargetType: targetType,
		Text:       text,
	})
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"activity_id": a.ID,
		"recipient":   recipient,
		"actor_id":    actor,
		"action":      action,
	}).Debug("Activity emitted")
	return nil
}

// DeleteForTarget removes the activities pointing at a deleted entity.
func (s *ActivityService) DeleteForTarget(ctx context.Context, targetID string, targetType models.TargetType) (int, error) {
	return s.activities.DeleteByTarget(ctx, targetID, targetType)
}

// List returns a page of the recipient's activities, newest first.
func (s *ActivityService) List(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*repositories.Page[models.ActivityView], error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	page, err := s.activities.GetActivitiesByUser(ctx, userID, after, limit)
	if err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &repositories.Page[models.ActivityView]{Items: views, Next: page.Next, HasMore: page.HasMore}, nil
}

func (s *ActivityService) Unread(ctx context.Context, userID string, limit int) ([]*models.ActivityView, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	activities, err := s.activities.GetUnreadActivities(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, activities)
}

func (s *ActivityService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.activities.CountUnread(ctx, userID)
}

// MarkRead marks the given activities as read. Ids that belong to another
// recipient or do not exist are ignored. It returns how many were marked.
func (s *ActivityService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	found, err := s.activities.GetActivitiesByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	var owned []string
	for _, a := range found {
		if a.UserID == userID && !a.IsRead {
			owned = append(owned, a.ID)
		}
	}
	if len(owned) == 0 {
		return 0, nil
	}
	if err := s.activities.MarkAsRead(ctx, owned); err != nil {
		return 0, err
	}
	return len(owned), nil
}

func (s *ActivityService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.activities.GetUnreadActivities(ctx, userID, 0)
	if err != nil || len(unread) == 0 {
		return 0, err
	}
	ids := make([]string, len(unread))
	for i, a := range unread {
		ids[i] = a.ID
	}
	if err := s.activities.MarkAsRead(ctx, ids); err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "count": len(ids)}).Info("Activities marked as read")
	return len(ids), nil
}

// SubscribeUnreadCount calls fn with the recipient's unread count now and
// whenever it may have changed. The returned func must be called to
// release the subscription.
func (s *ActivityService) SubscribeUnreadCount(ctx context.Context, userID string, fn func(int, error)) (docstore.Unsubscribe, error) {
	return s.activities.SubscribeUnread(ctx, userID, func(items []*models.Activity, err error) {
		if err != nil {
			fn(0, err)
			return
		}
		fn(len(items), nil)
	})
}

// enrich joins activities with their actors and a preview of the target:
// the image of a post or the text of a comment. The three lookups run
// concurrently.
func (s *ActivityService) enrich(ctx context.Context, activities []*models.Activity) ([]*models.ActivityView, error) {
	var (
		postIDs, commentIDs []string
		actors              map[string]*models.User
		posts               map[string]*models.Post
		comments            map[string]*models.Comment
	)
	for _, a := range activities {
		switch a.TargetType {
		case models.TargetPost:
			postIDs = append(postIDs, a.TargetID)
		case models.TargetComment:
			commentIDs = append(commentIDs, a.TargetID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actors, err = userIndex(gctx, s.users, activities, func(a *models.Activity) string { return a.ActorID })
		return err
	})
	g.Go(func() error {
		found, err := s.posts.GetPostsByIDs(gctx, postIDs)
		posts = indexByID(found, func(p *models.Post) string { return p.ID })
		return err
	})
	g.Go(func() error {
		found, err := s.comments.GetCommentsByIDs(gctx, commentIDs)
		comments = indexByID(found, func(c *models.Comment) string { return c.ID })
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return zip(activities, actors, func(a *models.Activity) string { return a.ActorID },
		func(a *models.Activity, actor *models.User) *models.ActivityView {
			view := &models.ActivityView{Activity: a, Actor: actor.Summary()}
			switch a.TargetType {
			case models.TargetPost:
				if p := posts[a.TargetID]; p != nil {
					view.TargetPreview = p.ImageURL
				}
			case models.TargetComment:
				if c := comments[a.TargetID]; c != nil {
					view.TargetPreview = c.Text
				}
			}
			return view
		}), nil
}
