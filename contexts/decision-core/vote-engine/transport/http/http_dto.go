package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitVoteRequest struct {
	ChoiceID   string `json:"choice_id"`
	DelegateID string `json:"delegate_id,omitempty"`
}

type VoteResponse struct {
	VoteID     string `json:"vote_id"`
	PollID     string `json:"poll_id"`
	UserID     string `json:"user_id"`
	ChoiceID   string `json:"choice_id"`
	DelegateID string `json:"delegate_id,omitempty"`
	Direct     bool   `json:"direct"`
}

type SubmitVoteResponse struct {
	Vote       VoteResponse   `json:"vote"`
	Propagated []VoteResponse `json:"propagated"`
	WasUpdate  bool           `json:"was_update"`
	Replayed   bool           `json:"replayed"`
}

type ChoiceTallyItem struct {
	ChoiceID  string `json:"choice_id"`
	Name      string `json:"name"`
	Direct    int    `json:"direct"`
	Inherited int    `json:"inherited"`
	Total     int    `json:"total"`
}

type PollResultsResponse struct {
	PollID     string            `json:"poll_id"`
	TotalVotes int               `json:"total_votes"`
	Tallies    []ChoiceTallyItem `json:"tallies"`
}
