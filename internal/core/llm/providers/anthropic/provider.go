// Package anthropic adapts the Anthropic Messages API to ports.AIProvider,
// following nugget-thane-ai-agent's internal/llm/anthropic.go request
// construction and SSE handling, trimmed to the completion-only contract
// this client needs (no tool calls).
package anthropic

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

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Provider talks to one Anthropic model.
type Provider struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// New constructs a Provider with a sane default HTTP client — no overall
// timeout, since streaming responses can be long-lived; callers control
// deadlines via ctx.
func New(apiKey, model string) *Provider {
	return &Provider{
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{},
	}
}

type request struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta *delta `json:"delta,omitempty"`
	Usage *usage `json:"usage,omitempty"`
}

type delta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

func (p *Provider) ProviderInfo() ports.ProviderInfo {
	return ports.ProviderInfo{Provider: "anthropic", Model: p.Model}
}

// EstimateTokens applies a cheap ≈4-characters-per-token heuristic, good
// enough for pre-call budget checks.
func (p *Provider) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func (p *Provider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	body, err := json.Marshal(toAnthropicRequest(req, p.Model, false))
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

	content := joinText(parsed.Content)
	costCents := pricing.CompletionCost("anthropic", p.Model, parsed.Usage.InputTokens, parsed.Usage.OutputTokens)
	return ports.CompletionResponse{
		Content:      content,
		FinishReason: mapFinishReason(parsed.StopReason),
		Usage:        ports.Usage{PromptTokens: parsed.Usage.InputTokens, CompletionTokens: parsed.Usage.OutputTokens},
		CostCents:    costCents,
	}, nil
}

func (p *Provider) StreamComplete(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamChunk, error) {
	body, err := json.Marshal(toAnthropicRequest(req, p.Model, true))
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

		var inputTokens, outputTokens int
		var finish ports.FinishReason

		err := sse.Parse(resp.Body, func(frame sse.Frame) error {
			if frame.Data == "" || sse.IsDone(frame.Data) {
				return nil
			}
			var event streamEvent
			if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
				return nil // skip malformed frames rather than aborting the stream
			}
			switch event.Type {
			case "content_block_delta":
				if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					out <- ports.StreamChunk{Kind: ports.StreamChunkDelta, Delta: event.Delta.Text}
				}
			case "message_delta":
				if event.Delta != nil {
					finish = mapFinishReason(event.Delta.StopReason)
				}
				if event.Usage != nil {
					outputTokens = event.Usage.OutputTokens
				}
			case "message_start":
				if event.Usage != nil {
					inputTokens = event.Usage.InputTokens
				}
			}
			return nil
		})
		if err != nil {
			out <- ports.StreamChunk{Kind: ports.StreamChunkFinal, Err: llmdomain.Network(err)}
			return
		}

		costCents := pricing.CompletionCost("anthropic", p.Model, inputTokens, outputTokens)
		out <- ports.StreamChunk{
			Kind:         ports.StreamChunkFinal,
			FinishReason: finish,
			Usage:        ports.Usage{PromptTokens: inputTokens, CompletionTokens: outputTokens},
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
	httpReq.Header.Set("x-api-key", p.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	return httpReq, nil
}

func toAnthropicRequest(req ports.CompletionRequest, model string, stream bool) request {
	out := request{Model: model, System: req.SystemPrompt, MaxTokens: req.MaxTokens, Stream: stream}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 4096
	}
	for _, m := range req.Messages {
		if m.Role == ports.RoleSystem {
			continue
		}
		out.Messages = append(out.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func joinText(blocks []contentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func mapFinishReason(stopReason string) ports.FinishReason {
	switch stopReason {
	case "max_tokens":
		return ports.FinishLength
	case "stop_sequence", "end_turn":
		return ports.FinishStop
	default:
		return ports.FinishStop
	}
}

// classifyTransportError distinguishes a caller-driven timeout/cancellation
// from a genuine network failure.
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
		return &llmdomain.Failure{Code: llmdomain.FailureAuthenticationFailed, Message: fmt.Sprintf("anthropic: auth failed (%d)", resp.StatusCode)}
	case http.StatusTooManyRequests:
		return llmdomain.RateLimited(parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("anthropic: rate limited"))
	case http.StatusRequestEntityTooLarge:
		return llmdomain.ContextTooLong(0, 0)
	case http.StatusBadRequest:
		return &llmdomain.Failure{Code: llmdomain.FailureInvalidRequest, Message: "anthropic: invalid request"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return llmdomain.Unavailable(fmt.Errorf("anthropic: upstream unavailable (%d)", resp.StatusCode))
	default:
		return llmdomain.Unavailable(fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode))
	}
}

// parseRetryAfter reads the standard Retry-After header, falling back to a
// 30-second default when absent or malformed.
func parseRetryAfter(header string) int {
	if header == "" {
		return 30
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 30
	}
	return secs
}
