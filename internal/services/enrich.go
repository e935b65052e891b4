package services

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
)

// collectKeys returns the non-empty keys of items, deduplicated, in first
// appearance order.
func collectKeys[T any](items []*T, keys ...func(*T) string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		for _, key := range keys {
			k := key(item)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// zip joins each item with the referenced entity found under its key.
// Items whose reference is missing are passed a nil V.
func zip[T, V, R any](items []*T, refs map[string]*V, key func(*T) string, merge func(*T, *V) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, merge(item, refs[key(item)]))
	}
	return out
}

func indexByID[V any](items []*V, id func(*V) string) map[string]*V {
	out := make(map[string]*V, len(items))
	for _, item := range items {
		out[id(item)] = item
	}
	return out
}

// userIndex batch-fetches the users referenced by items.
func userIndex[T any](ctx context.Context, users repositories.UserRepository, items []*T, keys ...func(*T) string) (map[string]*models.User, error) {
	ids := collectKeys(items, keys...)
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return indexByID(found, func(u *models.User) string { return u.ID }), nil
}

func postAuthor(p *models.Post) string       { return p.UserID }
func commentAuthor(c *models.Comment) string { return c.UserID }

// withAuthors joins posts with their authors. Posts whose author no longer
// exists are dropped.
func withAuthors(ctx context.Context, users repositories.UserRepository, posts []*models.Post) ([]*models.PostWithUser, error) {
	index, err := userIndex(ctx, users, posts, postAuthor)
	if err != nil {
		return nil, err
	}
	joined := zip(posts, index, postAuthor, func(p *models.Post, u *models.User) *models.PostWithUser {
		if u == nil {
			return nil
		}
		return &models.PostWithUser{Post: p, User: u.Summary()}
	})
	out := joined[:0]
	for _, p := range joined {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func withCommenters(ctx context.Context, users repositories.UserRepository, comments []*models.Comment) ([]*models.CommentWithUser, error) {
	index, err := userIndex(ctx, users, comments, commentAuthor)
	if err != nil {
		return nil, err
	}
	return zip(comments, index, commentAuthor, func(c *models.Comment, u *models.User) *models.CommentWithUser {
		return &models.CommentWithUser{Comment: c, User: u.Summary()}
	}), nil
}
