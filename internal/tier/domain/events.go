package domain

const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeactivated = "deactivated"
)

// ChangedEvent is published after a tier write commits.
type ChangedEvent struct {
	TierID   string `json:"tier_id"`
	Kind     Kind   `json:"kind"`
	Action   string `json:"action"`
	IsActive bool   `json:"is_active"`
	Actor    string `json:"actor,omitempty"`
}
