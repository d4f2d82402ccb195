package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIAPIURL            = "https://api.openai.com/v1"
	openAIDefaultTextModel  = "gpt-4o"
	openAIDefaultImageModel = "gpt-image-1"
)

type OpenAIClient struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    openAIAPIURL,
		textModel:  openAIDefaultTextModel,
		imageModel: openAIDefaultImageModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func newOpenAIClientFromConfig(config *Config) *OpenAIClient {
	c := NewOpenAIClient(config.OpenAIAPIKey)
	if config.BaseURL != "" {
		c.baseURL = strings.TrimRight(config.BaseURL, "/")
	}
	if config.TextModel != "" {
		c.textModel = config.TextModel
	}
	if config.ImageModel != "" {
		c.imageModel = config.ImageModel
	}
	if config.Timeout > 0 {
		c.httpClient.Timeout = config.Timeout
	}
	return c
}

type openAIChatRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *openAIError `json:"error"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIChatRequest{
		Model: c.textModel,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}

	var openAIResp openAIChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &openAIResp); err != nil {
		return "", err
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIImageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		Size:   "1024x1024",
		N:      1,
	}

	var openAIResp openAIImageResponse
	if err := c.post(ctx, "/images/generations", reqBody, &openAIResp); err != nil {
		return "", err
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Data) == 0 {
		return "", nil
	}

	image := openAIResp.Data[0]
	if image.B64JSON != "" {
		return "data:image/png;base64," + image.B64JSON, nil
	}
	return image.URL, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, reqBody, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	return nil
}
