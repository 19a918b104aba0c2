package application

import (
	"context"

	"wayfinder/internal/core/llm/ports"
	conversationports "wayfinder/internal/core/conversation/ports"
)

// ConversationClient adapts an AIProvider (typically a FailoverProvider) to
// conversation/ports.AIClient. The conversation package never imports llm
// directly — it depends on a narrow interface it declares itself — so this
// adapter is what actually wires the two together at composition time.
type ConversationClient struct {
	Provider ports.AIProvider
}

func (c ConversationClient) Complete(ctx context.Context, req conversationports.CompletionRequest) (conversationports.CompletionResponse, error) {
	messages := make([]ports.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ports.Message{Role: ports.Role(m.Role), Content: m.Content})
	}

	resp, err := c.Provider.Complete(ctx, ports.CompletionRequest{
		SystemPrompt: req.SystemPrompt,
		Messages:     messages,
		MaxTokens:    req.MaxTokens,
		SessionID:    req.SessionID,
	})
	if err != nil {
		return conversationports.CompletionResponse{}, err
	}

	return conversationports.CompletionResponse{
		Content:          resp.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
