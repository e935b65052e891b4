package models

import "time"

// User is a profile document in the users collection. The document id is
// the actor id supplied by the identity provider.
type User struct {
	ID             string    `json:"id" doc:"id"`
	Username       string    `json:"username" doc:"username"`
	Email          string    `json:"email" doc:"email"`
	DisplayName    string    `json:"display_name" doc:"displayName"`
	Bio            string    `json:"bio" doc:"bio"`
	AvatarURL      string    `json:"avatar_url" doc:"avatarUrl"`
	FollowersCount int       `json:"followers_count" doc:"followersCount"`
	FollowingCount int       `json:"following_count" doc:"followingCount"`
	PostsCount     int       `json:"posts_count" doc:"postsCount"`
	IsPrivate      bool      `json:"is_private" doc:"isPrivate"`
	SearchText     string    `json:"-" doc:"searchText"`
	SearchGrams2   []string  `json:"-" doc:"searchGrams2"`
	SearchGrams3   []string  `json:"-" doc:"searchGrams3"`
	CreatedAt      time.Time `json:"created_at" doc:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" doc:"updatedAt"`
}

// Counter fields maintained on User documents.
const (
	FieldFollowersCount = "followersCount"
	FieldFollowingCount = "followingCount"
	FieldPostsCount     = "postsCount"
)

// UserSummary is the slice of a user embedded in enriched views.
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=30"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Bio         string `json:"bio" validate:"omitempty,max=160"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	IsPrivate   bool   `json:"is_private"`
}

// UpdateUserRequest carries a partial profile update; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=50"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=160"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}
