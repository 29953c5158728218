package ranking

import (
	"sort"

	"reelharvest/internal/normalize"
)

// Weights scales each engagement signal. Replies count double by default.
type Weights struct {
	Reply float64
	Like  float64
}

// DefaultWeights returns the stock reply and like weights.
func DefaultWeights() Weights {
	return Weights{Reply: 2.0, Like: 1.0}
}

// Result pairs the ranked, truncated records with the full set in input order.
// Both carry EngagementScore.
type Result struct {
	Ranked []normalize.Record
	All    []normalize.Record
}

// Score computes the engagement score for one record.
func Score(record normalize.Record, w Weights) float64 {
	return float64(record.ReplyCount)*w.Reply + float64(record.LikeCount)*w.Like
}

// Rank scores every record and returns them ordered by descending score, ties
// kept in input order, truncated to topK. topK <= 0 or topK >= len(records)
// keeps everything. The input slice is not modified.
func Rank(records []normalize.Record, topK int, w Weights) Result {
	all := make([]normalize.Record, len(records))
	for i, record := range records {
		record.EngagementScore = Score(record, w)
		all[i] = record
	}

	ranked := make([]normalize.Record, len(all))
	copy(ranked, all)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EngagementScore > ranked[j].EngagementScore
	})
	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK:topK]
	}
	return Result{Ranked: ranked, All: all}
}
