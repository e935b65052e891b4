package models

import "time"

// Post is a document in the posts collection. Tags holds the usernames
// mentioned in the post.
type Post struct {
	ID           string    `json:"id" doc:"id"`
	UserID       string    `json:"user_id" doc:"userId"`
	ImageURL     string    `json:"image_url" doc:"imageUrl"`
	Caption      string    `json:"caption" doc:"caption"`
	Location     string    `json:"location" doc:"location"`
	Tags         []string  `json:"tags" doc:"tags"`
	IsPublic     bool      `json:"is_public" doc:"isPublic"`
	LikeCount    int       `json:"like_count" doc:"likeCount"`
	CommentCount int       `json:"comment_count" doc:"commentCount"`
	CreatedAt    time.Time `json:"created_at" doc:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" doc:"updatedAt"`
}

const (
	FieldLikeCount    = "likeCount"
	FieldCommentCount = "commentCount"
)

// PostWithUser is a post joined with its author.
type PostWithUser struct {
	*Post
	User *UserSummary `json:"user"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	ImageURL string   `json:"image_url" validate:"required"`
	Caption  string   `json:"caption" validate:"omitempty,max=2200"`
	Location string   `json:"location" validate:"omitempty,max=100"`
	Tags     []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=31"`
	IsPublic *bool    `json:"is_public"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Caption  *string `json:"caption,omitempty" validate:"omitempty,max=2200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=100"`
	IsPublic *bool   `json:"is_public,omitempty"`
}
