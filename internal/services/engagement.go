package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Engagement applies likes, comments and posts together with the counters
// and activities they imply. Each step is its own document write; a failure
// part way leaves the earlier steps applied and returns the error as is.
type Engagement struct {
	users      repositories.UserRepository
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	likes      repositories.LikeRepository
	activities *ActivityService
	logger     *logger.Logger
}

func NewEngagement(users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, likes repositories.LikeRepository, activities *ActivityService, logger *logger.Logger) *Engagement {
	return &Engagement{
		users:      users,
		posts:      posts,
		comments:   comments,
		likes:      likes,
		activities: activities,
		logger:     logger,
	}
}

// likeTarget resolves the owner of a likeable entity and the counter and
// activity that go with it.
type likeTarget struct {
	owner  string
	action models.ActionType
	adjust func(ctx context.Context, id string, delta int) error
}

func (e *Engagement) resolveTarget(ctx context.Context, targetID string, targetType models.TargetType) (*likeTarget, error) {
	switch targetType {
	case models.TargetPost:
		post, err := e.posts.GetPostByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if post == nil {
			return nil, ErrPostNotFound
		}
		return &likeTarget{owner: post.UserID, action: models.ActionLike, adjust: e.posts.AdjustLikeCount}, nil
	case models.TargetComment:
		comment, err := e.comments.GetCommentByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if comment == nil {
			return nil, ErrCommentNotFound
		}
		return &likeTarget{owner: comment.UserID, action: models.ActionLikeComment, adjust: e.comments.AdjustLikeCount}, nil
	}
	return nil, ErrInvalidTarget
}

// Like records that userID likes the target. Liking something already
// liked changes nothing.
func (e *Engagement) Like(ctx context.Context, userID, targetID string, targetType models.TargetType) error {
	existing, err := e.likes.FindLike(ctx, userID, targetID, targetType)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	target, err := e.resolveTarget(ctx, targetID, targetType)
	if err != nil {
		return err
	}

	_, err = e.likes.CreateLike(ctx, &models.Like{UserID: userID, TargetID: targetID, TargetType: targetType})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := target.adjust(ctx, targetID, 1); err != nil {
		return err
	}
	if err := e.activities.Emit(ctx, target.owner, userID, target.action, targetID, targetType, ""); err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"target_id":   targetID,
		"target_type": targetType,
	}).Info("Target liked")
	return nil
}

// Unlike removes the like if there is one.
func (e *Engagement) Unlike(ctx context.Context, userID, targetID string, targetType models.TargetType) error {
	if targetType != models.TargetPost && targetType != models.TargetComment {
		return ErrInvalidTarget
	}
	removed, err := e.likes.DeleteLikes(ctx, userID, targetID, targetType)
	if err != nil || removed == 0 {
		return err
	}
	adjust := e.posts.AdjustLikeCount
	if targetType == models.TargetComment {
		adjust = e.comments.AdjustLikeCount
	}
	if err := adjust(ctx, targetID, -removed); err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"target_id":   targetID,
		"target_type": targetType,
	}).Info("Target unliked")
	return nil
}

func (e *Engagement) IsLiked(ctx context.Context, userID, targetID string, targetType models.TargetType) (bool, error) {
	like, err := e.likes.FindLike(ctx, userID, targetID, targetType)
	return like != nil, err
}

// CreateComment adds a comment (or a reply when ParentCommentID is set) to
// a post, bumps the post's commentCount and notifies the post owner.
func (e *Engagement) CreateComment(ctx context.Context, userID, postID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if req.ParentCommentID != nil {
		parent, err := e.comments.GetCommentByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PostID != postID {
			return nil, ErrInvalidParent
		}
	}

	comment, err := e.comments.CreateComment(ctx, &models.Comment{
		PostID:          postID,
		UserID:          userID,
		Text:            req.Text,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		return nil, err
	}
	if err := e.posts.AdjustCommentCount(ctx, postID, 1); err != nil {
		return nil, err
	}
	if err := e.activities.Emit(ctx, post.UserID, userID, models.ActionComment, comment.ID, models.TargetComment, comment.Text); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"post_id":    postID,
		"user_id":    userID,
	}).Info("Comment created")
	return comment, nil
}

// DeleteComment is allowed to the comment author and to the post owner.
func (e *Engagement) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := e.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if comment.UserID != userID {
		post, err := e.posts.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post == nil || post.UserID != userID {
			return ErrForbidden
		}
	}

	if err := e.comments.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	if err := e.posts.AdjustCommentCount(ctx, comment.PostID, -1); err != nil {
		return err
	}
	removed, err := e.activities.DeleteForTarget(ctx, commentID, models.TargetComment)
	if err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"comment_id":         commentID,
		"post_id":            comment.PostID,
		"activities_removed": removed,
	}).Info("Comment deleted")
	return nil
}

// CreatePost stores a post, bumps the author's postsCount and sends one
// mention activity per tagged username that resolves to a user.
func (e *Engagement) CreatePost(ctx context.Context, userID string, req *models.CreatePostRequest) (*models.Post, error) {
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	post, err := e.posts.CreatePost(ctx, &models.Post{
		UserID:   userID,
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
		Location: req.Location,
		Tags:     NormalizeTags(req.Tags),
		IsPublic: isPublic,
	})
	if err != nil {
		return nil, err
	}
	if err := e.users.AdjustPostsCount(ctx, userID, 1); err != nil {
		return nil, err
	}

	for _, username := range post.Tags {
		mentioned, err := e.users.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if mentioned == nil {
			e.logger.WithField("username", username).Debug("Skipping mention of unknown user")
			continue
		}
		if err := e.activities.Emit(ctx, mentioned.ID, userID, models.ActionMention, post.ID, models.TargetPost, ""); err != nil {
			return nil, err
		}
	}

	e.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"user_id": userID,
		"tags":    len(post.Tags),
	}).Info("Post created")
	return post, nil
}

// UpdatePost changes caption, location and visibility. Only the owner may
// update a post.
func (e *Engagement) UpdatePost(ctx context.Context, userID, postID string, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := e.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	fields := docstore.Fields{}
	if req.Caption != nil {
		fields["caption"] = *req.Caption
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.IsPublic != nil {
		fields["isPublic"] = *req.IsPublic
	}
	if len(fields) == 0 {
		return post, nil
	}
	if err := e.posts.UpdatePost(ctx, postID, fields); err != nil {
		return nil, err
	}
	return e.posts.GetPostByID(ctx, postID)
}

// DeletePost removes the post, decrements the author's postsCount and
// cascades to the activities that point at it.
func (e *Engagement) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := e.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if err := e.posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	if err := e.users.AdjustPostsCount(ctx, post.UserID, -1); err != nil {
		return err
	}
	removed, err := e.activities.DeleteForTarget(ctx, postID, models.TargetPost)
	if err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"post_id":            postID,
		"activities_removed": removed,
	}).Info("Post deleted")
	return nil
}

func (e *Engagement) ownedPost(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

// NormalizeTags lowercases usernames, strips a leading "@" and drops
// empties and duplicates.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "@"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
