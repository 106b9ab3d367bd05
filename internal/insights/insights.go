// Package insights asks an OpenAI-compatible model for a qualitative read of
// an aggregate bot traffic artifact.
package insights

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"ai-bot-analyzer/internal/config"
)

const systemPrompt = "You are an expert in web analytics and SEO."

const userPromptPrefix = "Please describe the insights you glean from this listing " +
	"of all the AI bot traffic that hit our site:\n\n"

// Summarize sends the contents of the aggregate CSV to the configured chat
// completions endpoint and returns the model's analysis. Nothing is sent when
// no API key is configured.
func Summarize(ctx context.Context, cfg config.LLMConfig, csvPath string) (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("no LLM API key configured: set llm.api_key in the config file")
	}

	content, err := os.ReadFile(csvPath)
	if err != nil {
		return "", fmt.Errorf("failed to read aggregate file: %w", err)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPromptPrefix + string(content)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
