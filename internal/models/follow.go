package models

import "time"

// FollowRecord is one side of a follow edge. The same payload is written to
// users/{followedId}/followers/{followerId} and
// users/{followerId}/following/{followedId}.
type FollowRecord struct {
	ID         string    `json:"id" doc:"id"`
	FollowerID string    `json:"follower_id" doc:"followerId"`
	FollowedID string    `json:"followed_id" doc:"followedId"`
	FollowedAt time.Time `json:"followed_at" doc:"followedAt"`
}
