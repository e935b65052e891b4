package models

import "time"

// Comment is a document in the comments collection. ParentCommentID is nil
// for top-level comments and is always written so it can be filtered on.
type Comment struct {
	ID              string    `json:"id" doc:"id"`
	PostID          string    `json:"post_id" doc:"postId"`
	UserID          string    `json:"user_id" doc:"userId"`
	Text            string    `json:"text" doc:"text"`
	LikeCount       int       `json:"like_count" doc:"likeCount"`
	ParentCommentID *string   `json:"parent_comment_id" doc:"parentCommentId"`
	CreatedAt       time.Time `json:"created_at" doc:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" doc:"updatedAt"`
}

type CommentWithUser struct {
	*Comment
	User *UserSummary `json:"user"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text            string  `json:"text" validate:"required,min=1,max=1000"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}
