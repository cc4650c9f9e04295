package triage

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ModelClient is the generative model surface the selector and analyzer
// consume: a cheap connectivity probe and a vision-capable invocation.
type ModelClient interface {
	Probe(ctx context.Context, model string) error
	Invoke(ctx context.Context, model, prompt, imageURL string) (string, error)
}

// OpenAIClient implements ModelClient against the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey)}
}

// Probe issues a minimal one-token completion to verify the model
// responds at all.
func (o *OpenAIClient) Probe(ctx context.Context, model string) error {
	_, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "Test Connection",
				},
			},
			MaxTokens: 1,
		},
	)
	return err
}

// Invoke sends the triage prompt plus the case photo (a base64 data URL)
// as a multimodal message and returns the raw text response.
func (o *OpenAIClient) Invoke(ctx context.Context, model, prompt, imageURL string) (string, error) {
	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    imageURL,
								Detail: openai.ImageURLDetailAuto,
							},
						},
					},
				},
			},
			MaxTokens:   400,
			Temperature: 0.2,
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}
