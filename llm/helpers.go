package llm

import "context"

// Completer is satisfied by Adapter and by test doubles.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Ask sends a system and a user prompt and returns the answer text.
func Ask(ctx context.Context, c Completer, system, user string) (string, error) {
	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
