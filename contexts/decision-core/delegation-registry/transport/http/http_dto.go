package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateDelegationRequest struct {
	LeaderID    string   `json:"leader_id"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

type DelegationResponse struct {
	DelegationID string   `json:"delegation_id"`
	FollowerID   string   `json:"follower_id"`
	LeaderID     string   `json:"leader_id"`
	CategoryIDs  []string `json:"category_ids,omitempty"`
	Global       bool     `json:"global"`
	Replayed     bool     `json:"replayed,omitempty"`
}

type DelegationListResponse struct {
	Items []DelegationResponse `json:"items"`
}
