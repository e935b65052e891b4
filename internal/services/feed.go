package services

import (
	"context"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
)

const defaultFeedLimit = 20

// PostPage is a page of posts joined with their authors.
type PostPage = repositories.Page[models.PostWithUser]

// FeedService serves the read paths over posts, comments and likes, each
// joined with the users they reference.
type FeedService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	likes    repositories.LikeRepository
	graph    *SocialGraph
}

func NewFeedService(users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, likes repositories.LikeRepository, graph *SocialGraph) *FeedService {
	return &FeedService{users: users, posts: posts, comments: comments, likes: likes, graph: graph}
}

func feedLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	return limit
}

func (s *FeedService) GetPost(ctx context.Context, postID string) (*models.PostWithUser, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	author, err := s.users.GetUserByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	return &models.PostWithUser{Post: post, User: author.Summary()}, nil
}

func (s *FeedService) enrichPage(ctx context.Context, page *repositories.Page[models.Post]) (*PostPage, error) {
	items, err := withAuthors(ctx, s.users, page.Items)
	if err != nil {
		return nil, err
	}
	return &PostPage{Items: items, Next: page.Next, HasMore: page.HasMore}, nil
}

func (s *FeedService) PublicPosts(ctx context.Context, after *docstore.Cursor, limit int) (*PostPage, error) {
	page, err := s.posts.GetPublicPosts(ctx, after, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return s.enrichPage(ctx, page)
}

func (s *FeedService) UserPosts(ctx context.Context, userID string, after *docstore.Cursor, limit int) (*PostPage, error) {
	page, err := s.posts.GetPostsByUser(ctx, userID, after, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return s.enrichPage(ctx, page)
}

// HomeFeed returns public posts by userID and the users it follows,
// newest first, created before the given time (zero means no bound).
func (s *FeedService) HomeFeed(ctx context.Context, userID string, before time.Time, limit int) ([]*models.PostWithUser, error) {
	following, err := s.graph.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetFeedPosts(ctx, append([]string{userID}, following...), before, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.users, posts)
}

// TaggedPosts lists public posts mentioning username.
func (s *FeedService) TaggedPosts(ctx context.Context, username string, limit int) ([]*models.PostWithUser, error) {
	posts, err := s.posts.GetPostsByTag(ctx, NormalizeUsername(username), feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.users, posts)
}

// PostsByTags lists public posts mentioning any of tags.
func (s *FeedService) PostsByTags(ctx context.Context, tags []string, limit int) ([]*models.PostWithUser, error) {
	tags = NormalizeTags(tags)
	if len(tags) == 0 {
		return []*models.PostWithUser{}, nil
	}
	posts, err := s.posts.GetPostsByTags(ctx, tags, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.users, posts)
}

func (s *FeedService) PopularPosts(ctx context.Context, limit int) ([]*models.PostWithUser, error) {
	posts, err := s.posts.GetPopularPosts(ctx, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.users, posts)
}

// Comments returns a page of the top-level comments of a post.
func (s *FeedService) Comments(ctx context.Context, postID string, after *docstore.Cursor, limit int) (*repositories.Page[models.CommentWithUser], error) {
	page, err := s.comments.GetCommentsByPost(ctx, postID, after, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	items, err := withCommenters(ctx, s.users, page.Items)
	if err != nil {
		return nil, err
	}
	return &repositories.Page[models.CommentWithUser]{Items: items, Next: page.Next, HasMore: page.HasMore}, nil
}

func (s *FeedService) Replies(ctx context.Context, commentID string, limit int) ([]*models.CommentWithUser, error) {
	replies, err := s.comments.GetReplies(ctx, commentID, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withCommenters(ctx, s.users, replies)
}

func (s *FeedService) UserComments(ctx context.Context, userID string, limit int) ([]*models.CommentWithUser, error) {
	comments, err := s.comments.GetCommentsByUser(ctx, userID, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	return withCommenters(ctx, s.users, comments)
}

// Likers returns the users who liked a target, most recent first.
func (s *FeedService) Likers(ctx context.Context, targetID string, targetType models.TargetType, limit int) ([]*models.UserSummary, error) {
	likes, err := s.likes.GetLikesByTarget(ctx, targetID, targetType, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsersByIDs(ctx, collectKeys(likes, func(l *models.Like) string { return l.UserID }))
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, len(users))
	for i, u := range users {
		out[i] = u.Summary()
	}
	return out, nil
}

// LikedPosts lists the posts userID liked, most recent like first.
func (s *FeedService) LikedPosts(ctx context.Context, userID string, limit int) ([]*models.PostWithUser, error) {
	likes, err := s.likes.GetLikesByUser(ctx, userID, models.TargetPost, feedLimit(limit))
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetPostsByIDs(ctx, collectKeys(likes, func(l *models.Like) string { return l.TargetID }))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.users, posts)
}

func (s *FeedService) LikeCount(ctx context.Context, targetID string, targetType models.TargetType) (int, error) {
	return s.likes.CountLikes(ctx, targetID, targetType)
}
