// Package openai adapts the OpenAI Chat Completions API to ports.AIProvider,
// generalized from the same SSE-framing idiom as the anthropic provider but
// targeting OpenAI's delta/choices wire shape and "[DONE]" terminator.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	llmdomain "wayfinder/internal/core/llm/domain"
	"wayfinder/internal/core/llm/ports"
	"wayfinder/internal/core/llm/pricing"
	"wayfinder/internal/core/llm/sse"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Provider talks to one OpenAI model.
type Provider struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func New(apiKey, model string) *Provider {
	return &Provider{APIKey: apiKey, Model: model, HTTPClient: &http.Client{}}
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type streamResponse struct {
	Choices []streamChoice `json:"choices"`
	Usage   *usage         `json:"usage"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

type streamDelta struct {
	Content string `json:"content"`
}

func (p *Provider) ProviderInfo() ports.ProviderInfo {
	return ports.ProviderInfo{Provider: "openai", Model: p.Model}
}

func (p *Provider) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func (p *Provider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	body, err := json.Marshal(toOpenAIRequest(req, p.Model, false))
	if err != nil {
		return ports.CompletionResponse{}, llmdomain.Parse(err)
	}

	httpReq, err := p.newRequest(ctx, body)
	if err != nil {
		return ports.CompletionResponse{}, llmdomain.Network(err)
	}

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return ports.CompletionResponse{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.CompletionResponse{}, classifyHTTPError(resp)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ports.CompletionResponse{}, llmdomain.Parse(err)
	}
	if len(parsed.Choices) == 0 {
		return ports.CompletionResponse{}, llmdomain.Parse(fmt.Errorf("openai: response had no choices"))
	}

	costCents := pricing.CompletionCost("openai", p.Model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	return ports.CompletionResponse{
		Content:      parsed.Choices[0].Message.Content,
		FinishReason: mapFinishReason(parsed.Choices[0].FinishReason),
		Usage:        ports.Usage{PromptTokens: parsed.Usage.PromptTokens, CompletionTokens: parsed.Usage.CompletionTokens},
		CostCents:    costCents,
	}, nil
}

func (p *Provider) StreamComplete(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamChunk, error) {
	body, err := json.Marshal(toOpenAIRequest(req, p.Model, true))
	if err != nil {
		return nil, llmdomain.Parse(err)
	}

	httpReq, err := p.newRequest(ctx, body)
	if err != nil {
		return nil, llmdomain.Network(err)
	}

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, classifyHTTPError(resp)
	}

	out := make(chan ports.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(out)

		var promptTokens, completionTokens int
		var finish ports.FinishReason

		err := sse.Parse(resp.Body, func(frame sse.Frame) error {
			if frame.Data == "" {
				return nil
			}
			if sse.IsDone(frame.Data) {
				return nil
			}
			var chunk streamResponse
			if err := json.Unmarshal([]byte(frame.Data), &chunk); err != nil {
				return nil
			}
			if chunk.Usage != nil {
				promptTokens = chunk.Usage.PromptTokens
				completionTokens = chunk.Usage.CompletionTokens
			}
			if len(chunk.Choices) == 0 {
				return nil
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				out <- ports.StreamChunk{Kind: ports.StreamChunkDelta, Delta: content}
			}
			if fr := chunk.Choices[0].FinishReason; fr != nil {
				finish = mapFinishReason(*fr)
			}
			return nil
		})
		if err != nil {
			out <- ports.StreamChunk{Kind: ports.StreamChunkFinal, Err: llmdomain.Network(err)}
			return
		}

		costCents := pricing.CompletionCost("openai", p.Model, promptTokens, completionTokens)
		out <- ports.StreamChunk{
			Kind:         ports.StreamChunkFinal,
			FinishReason: finish,
			Usage:        ports.Usage{PromptTokens: promptTokens, CompletionTokens: completionTokens},
			CostCents:    costCents,
		}
	}()
	return out, nil
}

func (p *Provider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	return httpReq, nil
}

func toOpenAIRequest(req ports.CompletionRequest, model string, stream bool) request {
	out := request{Model: model, MaxTokens: req.MaxTokens, Stream: stream}
	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func mapFinishReason(reason string) ports.FinishReason {
	switch reason {
	case "length":
		return ports.FinishLength
	case "content_filter":
		return ports.FinishContentFilter
	default:
		return ports.FinishStop
	}
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return llmdomain.Timeout(0, err)
	}
	return llmdomain.Network(err)
}

func classifyHTTPError(resp *http.Response) error {
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmdomain.Failure{Code: llmdomain.FailureAuthenticationFailed, Message: fmt.Sprintf("openai: auth failed (%d)", resp.StatusCode)}
	case http.StatusTooManyRequests:
		return llmdomain.RateLimited(parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("openai: rate limited"))
	case http.StatusRequestEntityTooLarge:
		return llmdomain.ContextTooLong(0, 0)
	case http.StatusBadRequest:
		return &llmdomain.Failure{Code: llmdomain.FailureInvalidRequest, Message: "openai: invalid request"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return llmdomain.Unavailable(fmt.Errorf("openai: upstream unavailable (%d)", resp.StatusCode))
	default:
		return llmdomain.Unavailable(fmt.Errorf("openai: unexpected status %d", resp.StatusCode))
	}
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 20
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 20
	}
	return secs
}
