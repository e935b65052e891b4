package models

import "time"

// ActionType is what an actor did to produce an activity.
type ActionType string

const (
	ActionLike        ActionType = "like"
	ActionLikeComment ActionType = "like_comment"
	ActionComment     ActionType = "comment"
	ActionFollow      ActionType = "follow"
	ActionMention     ActionType = "mention"
)

// Activity is a per-recipient notification record. UserID is the recipient.
// After creation only IsRead changes.
type Activity struct {
	ID         string     `json:"id" doc:"id"`
	UserID     string     `json:"user_id" doc:"userId"`
	ActorID    string     `json:"actor_id" doc:"actorId"`
	TargetID   string     `json:"target_id,omitempty" doc:"targetId,omitempty"`
	TargetType TargetType `json:"target_type,omitempty" doc:"targetType,omitempty"`
	ActionType ActionType `json:"action_type" doc:"actionType"`
	Text       string     `json:"text,omitempty" doc:"text,omitempty"`
	IsRead     bool       `json:"is_read" doc:"isRead"`
	CreatedAt  time.Time  `json:"created_at" doc:"createdAt"`
}

// ActivityView is an activity joined with its actor and a preview of the
// target: the post image or the comment text.
type ActivityView struct {
	*Activity
	Actor         *UserSummary `json:"actor"`
	TargetPreview string       `json:"target_preview,omitempty"`
}

type MarkActivitiesReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}
