// internal/provider/spoonacular.go
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"meal-planner/internal/config"
)

const defaultSpoonacularURL = "https://api.spoonacular.com"

// Spoonacular queries the recipe search API and renders its results in the
// block format, so structured and generated suggestions share the parser.
type Spoonacular struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewSpoonacular(cfg config.ProviderConfig) *Spoonacular {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSpoonacularURL
	}
	return &Spoonacular{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

func (s *Spoonacular) Generate(ctx context.Context, prompt Prompt) (string, error) {
	count := prompt.Count
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("apiKey", s.apiKey)
	params.Set("number", strconv.Itoa(count))
	params.Set("addRecipeInformation", "true")
	if prompt.Budget > 0 {
		params.Set("maxPrice", strconv.FormatFloat(prompt.Budget, 'f', -1, 64))
	}
	if len(prompt.Diets) > 0 {
		params.Set("diet", strings.Join(prompt.Diets, ","))
	}

	endpoint := s.baseURL + "/recipes/complexSearch?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
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

	return renderRecipes(gjson.GetBytes(body, "results")), nil
}

func (s *Spoonacular) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// renderRecipes writes one block per recipe. pricePerServing is in cents.
func renderRecipes(results gjson.Result) string {
	var blocks []string
	results.ForEach(func(_, recipe gjson.Result) bool {
		var diets []string
		for _, d := range recipe.Get("diets").Array() {
			diets = append(diets, d.String())
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s\n", oneLine(recipe.Get("title").String()))
		fmt.Fprintf(&b, "Estimated Price: $%.2f\n", recipe.Get("pricePerServing").Float()/100)
		fmt.Fprintf(&b, "Diet Tags: %s\n", strings.Join(diets, ", "))
		fmt.Fprintf(&b, "Source URL: %s", oneLine(recipe.Get("sourceUrl").String()))
		blocks = append(blocks, b.String())
		return true
	})
	return strings.Join(blocks, "\n\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
