package sentiment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const redditUserAgent = "Mozilla/5.0 (market-analysis-bot)"

// RedditClient counts symbol mentions on a subreddit's top-posts page.
// Counting is a whole-word, case-insensitive match over the raw page
// text, a coarse but cheap buzz proxy.
type RedditClient struct {
	endpoint string
	client   *http.Client
}

func NewRedditClient(endpoint string) *RedditClient {
	return &RedditClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *RedditClient) Mentions(ctx context.Context, symbols []string) (map[string]int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}
	// Reddit rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("reddit http %d", resp.StatusCode)
	}

	text := string(body)
	mentions := make(map[string]int, len(symbols))
	for _, symbol := range symbols {
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(symbol) + `\b`)
		if err != nil {
			continue
		}
		mentions[symbol] = len(pattern.FindAllStringIndex(text, -1))
	}
	return mentions, nil
}
