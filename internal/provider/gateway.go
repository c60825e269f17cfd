// internal/provider/gateway.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/tidwall/gjson"

	"meal-planner/internal/config"
)

const (
	defaultProxyURL     = "http://mcp-compose-http-proxy:9876"
	defaultGatewayModel = "anthropic/claude-3.5-sonnet"
	gatewayPath         = "/openrouter-gateway"
	completionTool      = "create_completion"
)

// Gateway calls the OpenRouter gateway exposed as an MCP tool behind the
// HTTP proxy.
type Gateway struct {
	httpClient  *http.Client
	proxyURL    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

func NewGateway(cfg config.ProviderConfig) *Gateway {
	proxyURL := strings.TrimRight(cfg.BaseURL, "/")
	if proxyURL == "" {
		proxyURL = defaultProxyURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultGatewayModel
	}

	return &Gateway{
		// Deadline comes from the context; see WithTimeout.
		httpClient:  &http.Client{},
		proxyURL:    proxyURL,
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (g *Gateway) Generate(ctx context.Context, prompt Prompt) (string, error) {
	args := map[string]interface{}{
		"model":         g.model,
		"system_prompt": systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt.Text,
			},
		},
		"max_tokens":  g.maxTokens,
		"temperature": g.temperature,
	}

	raw, err := g.callTool(ctx, completionTool, args)
	if err != nil {
		return "", fmt.Errorf("failed to get AI completion: %w", err)
	}
	return completionText(raw), nil
}

func (g *Gateway) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

func (g *Gateway) callTool(ctx context.Context, toolName string, args map[string]interface{}) (string, error) {
	url := g.proxyURL + gatewayPath

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": protocol.CallToolRequest{
			Name:      toolName,
			Arguments: args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("failed to decode response: invalid JSON")
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return "", fmt.Errorf("gateway error: %s", msg.String())
	}

	text := gjson.GetBytes(body, "result.content.0.text")
	if text.Type != gjson.String {
		return "", fmt.Errorf("unexpected response format")
	}
	return text.String(), nil
}

// completionText unwraps the completion object the gateway returns as tool
// text. Plain text is returned as is.
func completionText(raw string) string {
	if gjson.Valid(raw) {
		if content := gjson.Get(raw, "content"); content.Type == gjson.String {
			return content.String()
		}
	}
	return raw
}
