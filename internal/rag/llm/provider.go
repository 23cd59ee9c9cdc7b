package llm

import "context"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged instruction of an assembled prompt.
type Message struct {
	Role    string
	Content string
}

// Provider is the generation-service collaborator.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
