package domain

// FearGreed is the global Fear & Greed index from alternative.me.
type FearGreed struct {
	Score          int    `json:"score"`
	Classification string `json:"classification"`
}

type NewsSentiment string

const (
	NewsPositive NewsSentiment = "positive"
	NewsNegative NewsSentiment = "negative"
	NewsNeutral  NewsSentiment = "neutral"
)

// CoinMetrics carries the CoinGecko community/developer proxy scores.
// Every field is nullable: a missing or failed fetch degrades to nil
// without invalidating the coin record.
type CoinMetrics struct {
	SentimentVotesUpPct *float64 `json:"cg_sentiment_votes_up_percentage"`
	CommunityScore      *float64 `json:"cg_community_score"`
	DeveloperScore      *float64 `json:"cg_developer_score"`
	PublicInterestScore *float64 `json:"cg_public_interest_score"`
}

// SocialSpikes carries the per-coin social-activity flags derived from the
// two most recent Santiment datapoints. Both degrade to false when the
// source is keyless, unsupported for the symbol, or down.
type SocialSpikes struct {
	DominanceSpike bool
	AddressSpike   bool
}

// SentimentInputs bundles everything the analyzer consumes that is not
// price data. Fetched independently of market data; may be stale relative
// to it.
type SentimentInputs struct {
	RedditMentions *int
	Metrics        CoinMetrics
	News           NewsSentiment
	FearGreed      FearGreed
	BTCInflowSpike bool
	Social         SocialSpikes
}
