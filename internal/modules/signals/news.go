package signals

import (
	"strings"

	"github.com/aristath/vitals/pkg/formulas"
)

const (
	neutralNewsScore = 50
	keywordWeight    = 5
)

var positiveKeywords = []string{
	"growth", "demand", "beats", "rally", "soar", "surge",
	"upgrade", "strong", "record", "bullish", "profit",
	"innovation", "breakthrough", "high", "jump",
}

var negativeKeywords = []string{
	"slowdown", "risk", "regulation", "crash", "slump",
	"downgrade", "weak", "miss", "volatility", "concern",
	"inflation", "drop", "bearish", "loss", "decline", "warns",
}

// NewsScore is the keyword sentiment of a batch of headlines
type NewsScore struct {
	Score         int `json:"news_score" msgpack:"news_score"`
	HeadlineCount int `json:"headline_count" msgpack:"headline_count"`
}

// ScoreNews runs a deterministic keyword scan. Each keyword counts at most once
// per headline but may count again in other headlines. Substring matches count,
// so "soars" matches "soar".
func ScoreNews(headlines []string) NewsScore {
	if len(headlines) == 0 {
		return NewsScore{Score: neutralNewsScore}
	}

	score := neutralNewsScore
	for _, headline := range headlines {
		text := strings.ToLower(headline)
		for _, word := range positiveKeywords {
			if strings.Contains(text, word) {
				score += keywordWeight
			}
		}
		for _, word := range negativeKeywords {
			if strings.Contains(text, word) {
				score -= keywordWeight
			}
		}
	}

	return NewsScore{
		Score:         int(formulas.Clamp(float64(score), 0, 100)),
		HeadlineCount: len(headlines),
	}
}
