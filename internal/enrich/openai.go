package enrich

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

// OpenAIConfig configures the vision-model client. BaseURL may point at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient implements Client against the chat-completions API with one
// combined validate+infer+summarize call per product.
type OpenAIClient struct {
	cfg  OpenAIConfig
	http *http.Client
}

// NewOpenAIClient builds a client. It returns an error when no API key is
// configured so callers can fall back to rule-based enrichment explicitly.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Infer sends one vision call and returns the raw model text.
func (c *OpenAIClient) Infer(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: buildPrompt(req)},
				{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL}},
			},
		}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat completion status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// buildPrompt asks for validation, attribute inference, and a summary in one
// line-oriented answer the parser can read back.
func buildPrompt(req Request) string {
	metal := req.Metal
	if metal == "" {
		metal = "unknown"
	}
	price := "unknown"
	if req.HasPrice {
		price = fmt.Sprintf("%.2f", req.PriceAmount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "First, validate if this is a SPECIFIC jewelry product by checking the product name: %q\n\n", req.Name)
	b.WriteString(`IMPORTANT - Product Name Validation:
- If the product name is a generic category term like "all jewelry", "chains", "rings", "collection", "shop all", or "view all", mark it INVALID
- Only specific product names with unique identifiers or descriptive details are VALID

If the name is INVALID, respond with EXACTLY:
Valid Product: No
Skip Reason: Generic category name, not a specific product

If the name is VALID, analyze the jewelry image and answer in this exact format:
Valid Product: Yes
Jewelry Type: [ring, necklace, earring, bracelet, ...]
Gemstone: [gemstone or "none visible"]
Gemstone Color: [color or "n/a"]
Metal Color: [yellow gold, white gold, rose gold, silver, platinum, ...]
Summary: [1-2 sentence product summary]
Vibe: [ONE of: wedding, engagement, casual, festive, formal, date-night, everyday, party]

`)
	fmt.Fprintf(&b, "Product Information:\n- Name: %s\n- Metal: %s\n- Price: %s\n\nBe specific and concise.", req.Name, metal, price)
	return b.String()
}
