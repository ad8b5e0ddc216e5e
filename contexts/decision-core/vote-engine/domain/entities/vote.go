package entities

import "time"

// Vote is the single row a user holds for a poll. DelegateID carries the
// immediate leader the vote was inherited from; an empty DelegateID marks a
// direct vote cast by the user themselves.
type Vote struct {
	VoteID     string    `json:"vote_id"`
	PollID     string    `json:"poll_id"`
	UserID     string    `json:"user_id"`
	ChoiceID   string    `json:"choice_id"`
	DelegateID string    `json:"delegate_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Direct reports whether the vote was cast by the user, not inherited.
// Direct votes are a sink for propagation: the engine never overwrites them.
func (v Vote) Direct() bool {
	return v.DelegateID == ""
}

// DelegationEdge is the reversed-graph view the engine walks: follower
// inherits from leader, optionally restricted to a set of poll categories.
type DelegationEdge struct {
	FollowerID  string   `json:"follower_id"`
	LeaderID    string   `json:"leader_id"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

// AppliesTo evaluates the category scoping rule. An edge with no categories
// is global. A scoped edge applies only to polls whose category is in the
// set; it never applies to a category-less poll.
func (e DelegationEdge) AppliesTo(pollCategoryID string) bool {
	if len(e.CategoryIDs) == 0 {
		return true
	}
	if pollCategoryID == "" {
		return false
	}
	for _, categoryID := range e.CategoryIDs {
		if categoryID == pollCategoryID {
			return true
		}
	}
	return false
}

type ChoiceTally struct {
	ChoiceID  string `json:"choice_id"`
	Name      string `json:"name"`
	Direct    int    `json:"direct"`
	Inherited int    `json:"inherited"`
	Total     int    `json:"total"`
}

type PollResults struct {
	PollID     string        `json:"poll_id"`
	TotalVotes int           `json:"total_votes"`
	Tallies    []ChoiceTally `json:"tallies"`
}
