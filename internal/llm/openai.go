package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// requestTimeout bounds a single translation call.
	requestTimeout = 10 * time.Second

	// pingTimeout bounds the reachability probe.
	pingTimeout = 3 * time.Second
)

const translatePrompt = `You are a git command expert. Translate the user's natural language query into a git command.

Repository Context:
%s

User Query: %s

CRITICAL INSTRUCTIONS:
- Respond with ONLY the git command itself
- Do NOT include explanations, reasoning, or commentary
- Do NOT use markdown code blocks or backticks
- Do NOT use multiple lines
- Output format: exactly one line containing just the git command
- Example good response: git status
- Example bad response: a code block wrapping git status

FILE PATH MATCHING:
- When the user mentions a file name, look at the repository files in the context
- Use fuzzy matching to find the correct file path
- If the user says "add input.go", look for files ending in "input.go" like "internal/ui/input.go"
- Always use the full path from the repository context
- Prioritize exact basename matches over partial matches

Your response:`

// OpenAIClient talks to an OpenAI-compatible chat completion endpoint. A
// custom base URL makes any compatible provider usable.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a provider for the given credentials. baseURL may
// be empty for the default endpoint.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Translate sends one chat completion request and returns the cleaned
// first line of the reply. At most one request per call; retries are the
// caller's concern.
func (c *OpenAIClient) Translate(ctx context.Context, query string, repoCtx *RepoContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(translatePrompt, repoCtx.Full(), query),
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &LLMError{Kind: LLMAPIError, Detail: "no choices in response"}
	}

	return CleanResponse(resp.Choices[0].Message.Content), nil
}

// Ping checks that the endpoint answers at all.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.client.ListModels(ctx); err != nil {
		return classifyAPIError(err)
	}
	return nil
}

func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &LLMError{Kind: LLMTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &LLMError{Kind: LLMRateLimit, Detail: "provider returned 429", Err: err}
		}
		return &LLMError{Kind: LLMAPIError, Detail: fmt.Sprintf("status %d", apiErr.HTTPStatusCode), Err: err}
	}

	return &LLMError{Kind: LLMNetwork, Err: err}
}

// CleanResponse extracts the command line from a raw model reply: strips
// markdown code fences and keeps only the first non-empty line. The result
// still goes through the full output validator.
func CleanResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.IndexByte(cleaned, '\n'); idx >= 0 {
			cleaned = cleaned[idx+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	for _, line := range strings.Split(cleaned, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
