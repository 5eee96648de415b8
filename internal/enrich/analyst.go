package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxAnalysisHTML bounds how much homepage markup goes into one analysis
// call to keep the prompt inside the model's context window.
const maxAnalysisHTML = 12000

// StructureAnalyst asks the model for CSS selectors that locate product
// links on a storefront homepage. It shares the client configuration with
// OpenAIClient but sends text-only calls.
type StructureAnalyst struct {
	client *OpenAIClient
}

// NewStructureAnalyst wraps an OpenAI client for homepage analysis.
func NewStructureAnalyst(client *OpenAIClient) (*StructureAnalyst, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client is required")
	}
	return &StructureAnalyst{client: client}, nil
}

// AnalyzeStructure returns CSS selectors, most promising first, that match
// anchors leading to products or product collections.
func (a *StructureAnalyst) AnalyzeStructure(ctx context.Context, html string) ([]string, error) {
	if len(html) > maxAnalysisHTML {
		html = html[:maxAnalysisHTML]
	}
	payload := chatRequest{
		Model: a.client.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: buildAnalysisPrompt(html)},
			},
		}},
		MaxTokens:   a.client.cfg.MaxTokens,
		Temperature: a.client.cfg.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(a.client.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.client.cfg.APIKey)

	resp, err := a.client.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("structure analysis call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("structure analysis status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("structure analysis status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("structure analysis returned no choices")
	}
	return parseSelectors(parsed.Choices[0].Message.Content), nil
}

func buildAnalysisPrompt(html string) string {
	var b strings.Builder
	b.WriteString(`You are analyzing the HTML of a jewelry store homepage.
Identify CSS selectors that match anchor elements linking to product pages
or product collection pages.

Rules:
- Answer with up to 5 CSS selectors, ONE PER LINE, nothing else
- Each selector must target <a> elements (for example ".product-grid a[href]")
- Prefer selectors for repeated product cards or collection tiles
- Do not include explanations, numbering, or markdown

HTML:
`)
	b.WriteString(html)
	return b.String()
}

// parseSelectors reads the line-oriented selector answer, stripping the
// decorations models add despite instructions.
func parseSelectors(raw string) []string {
	var selectors []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "`")
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" || strings.ContainsAny(line, "{}<>") {
			continue
		}
		selectors = append(selectors, line)
		if len(selectors) == 5 {
			break
		}
	}
	return selectors
}
