package scraper

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const defaultResults = 10

// GoogleSummarizer answers the top-products question with Programmable
// Search snippets.
type GoogleSummarizer struct {
	svc     *customsearch.Service
	engine  string
	results int64
}

func NewGoogleSummarizer(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*GoogleSummarizer, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("google search requires an api key and engine id")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %v", err)
	}
	return &GoogleSummarizer{svc: svc, engine: engineID, results: defaultResults}, nil
}

func (g *GoogleSummarizer) Summarize(ctx context.Context, subject string) (string, error) {
	query := fmt.Sprintf("What is %s's top products?", subject)
	res, err := g.svc.Cse.List().Cx(g.engine).Q(query).Num(g.results).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	snippets := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if s := strings.TrimSpace(item.Snippet); s != "" {
			snippets = append(snippets, s)
		}
	}
	if len(snippets) == 0 {
		return "No good Google Search Result was found", nil
	}
	return strings.Join(snippets, " "), nil
}
