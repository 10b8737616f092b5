package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/resilience"
)

// Completer wraps a Client with resilience (retry + circuit breaker)
// and implements ports.ChatCompleter.
type Completer struct {
	client   *Client
	executor *resilience.Executor
}

func NewCompleter(client *Client, executor *resilience.Executor) *Completer {
	return &Completer{client: client, executor: executor}
}

func (g *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return g.run(ctx, "generate", func(ctx context.Context) (string, error) {
		return g.client.generateText(ctx, prompt)
	})
}

func (g *Completer) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return g.run(ctx, "generate_json", func(ctx context.Context) (string, error) {
		return g.client.generateJSON(ctx, prompt)
	})
}

func (g *Completer) run(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	var result string
	err := g.executor.Execute(ctx, operation, func(ctx context.Context) error {
		out, err := fn(ctx)
		if err != nil {
			return err
		}
		result = out
		return nil
	}, func(err error) resilience.ErrorClassification {
		return classifyOllamaError(err)
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return result, nil
}

// Stream issues a streaming completion; text deltas arrive on the
// returned string channel, a single terminal error (if any) arrives on
// the error channel. Both channels are closed when the stream ends.
func (g *Completer) Stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	textCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(textCh)
		defer close(errCh)

		reqBody := map[string]any{
			"model":  g.client.genModel,
			"prompt": prompt,
			"stream": true,
		}
		err := g.client.postJSONStream(ctx, "/api/generate", reqBody, "generate_stream", func(line []byte) error {
			var chunk struct {
				Response string `json:"response"`
				Done     bool   `json:"done"`
			}
			if err := json.Unmarshal(line, &chunk); err != nil {
				return fmt.Errorf("decode stream chunk: %w", err)
			}
			if chunk.Response != "" {
				select {
				case textCh <- chunk.Response:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			errCh <- wrapTemporaryIfNeeded("generate_stream", err)
		}
	}()

	return textCh, errCh
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	start = strings.Index(raw, "[")
	end = strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
