package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// newsCacheTTL keeps one hot-news fetch serving a whole analysis cycle.
const newsCacheTTL = 5 * time.Minute

type newsPost struct {
	Title string `json:"title"`
	Votes struct {
		Positive int `json:"positive"`
		Negative int `json:"negative"`
	} `json:"votes"`
}

// CryptoPanicClient classifies per-coin headline sentiment from the
// CryptoPanic hot feed. The feed is fetched once and shared across all
// symbols of a cycle. Without an API key the source reports neutral for
// everything.
type CryptoPanicClient struct {
	endpoint string
	apiKey   string
	client   *http.Client

	mu        sync.Mutex
	posts     []newsPost
	fetchedAt time.Time
}

func NewCryptoPanicClient(endpoint, apiKey string) *CryptoPanicClient {
	return &CryptoPanicClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *CryptoPanicClient) NewsSentiment(ctx context.Context, symbol string) (domain.NewsSentiment, error) {
	if c.apiKey == "" {
		return domain.NewsNeutral, nil
	}

	posts, err := c.hotPosts(ctx)
	if err != nil {
		return domain.NewsNeutral, err
	}

	sentiment := domain.NewsNeutral
	needle := strings.ToLower(symbol)
	for _, post := range posts {
		title := strings.ToLower(post.Title)
		if !strings.Contains(title, needle) {
			continue
		}
		if post.Votes.Positive > post.Votes.Negative {
			sentiment = domain.NewsPositive
		} else if post.Votes.Negative > post.Votes.Positive {
			sentiment = domain.NewsNegative
		}
	}
	return sentiment, nil
}

func (c *CryptoPanicClient) hotPosts(ctx context.Context) ([]newsPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.posts != nil && time.Since(c.fetchedAt) < newsCacheTTL {
		return c.posts, nil
	}

	params := url.Values{}
	params.Set("auth_token", c.apiKey)
	params.Set("filter", "hot")
	params.Set("kind", "news")
	params.Set("regions", "en")
	params.Set("public", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cryptopanic http %d", resp.StatusCode)
	}

	var result struct {
		Results []newsPost `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	c.posts = result.Results
	c.fetchedAt = time.Now()
	return c.posts, nil
}
