package models

import "time"

// TargetType names the kind of entity a like or activity points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
	TargetUser    TargetType = "user"
)

// Like is a document in the likes collection. At most one exists per
// (UserID, TargetID, TargetType).
type Like struct {
	ID         string     `json:"id" doc:"id"`
	UserID     string     `json:"user_id" doc:"userId"`
	TargetID   string     `json:"target_id" doc:"targetId"`
	TargetType TargetType `json:"target_type" doc:"targetType"`
	CreatedAt  time.Time  `json:"created_at" doc:"createdAt"`
}

// LikeID is the deterministic document id of a like tuple.
func LikeID(userID, targetID string, targetType TargetType) string {
	return userID + "_" + string(targetType) + "_" + targetID
}
