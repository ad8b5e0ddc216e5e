package entities

import "time"

// Delegation authorizes a leader to vote on a follower's behalf. An empty
// CategoryIDs set makes the delegation global; otherwise it applies only to
// polls whose category is in the set.
type Delegation struct {
	DelegationID string    `json:"delegation_id"`
	FollowerID   string    `json:"follower_id"`
	LeaderID     string    `json:"leader_id"`
	CategoryIDs  []string  `json:"category_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d Delegation) Global() bool {
	return len(d.CategoryIDs) == 0
}
