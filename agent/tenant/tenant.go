// Package tenant holds per-page business configuration and its registry.
package tenant

// Service is one offering a tenant sells, with an optional negotiable floor.
// Prices stay strings because setup forms submit them as free text.
type Service struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Negotiable string `json:"negotiable,omitempty"`
}

// Config is a tenant's agent setup. Submissions replace the whole value;
// nothing is patched field by field.
type Config struct {
	PageID           string    `json:"page_id" validate:"required"`
	UserID           string    `json:"user_id" validate:"required"`
	Platform         string    `json:"platform,omitempty"`
	BusinessName     string    `json:"business_name,omitempty"`
	BusinessAddress  string    `json:"business_address,omitempty"`
	Offerings        string    `json:"offerings,omitempty"`
	BusinessHours    string    `json:"business_hours,omitempty"`
	GoalType         string    `json:"goalType,omitempty"`
	Fields           []string  `json:"field,omitempty"`
	ToneAndVibe      []string  `json:"toneAndVibe,omitempty"`
	AdditionalPrompt string    `json:"additionalPrompt,omitempty"`
	FollowUps        string    `json:"followUps,omitempty"`
	AgentName        string    `json:"agent_name,omitempty"`
	Services         []Service `json:"services,omitempty"`
}
