package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrForbidden        = errors.New("not allowed to modify this resource")
	ErrInvalidParent    = errors.New("parent comment does not belong to this post")
	ErrInvalidTarget    = errors.New("likes target a post or a comment")
)
