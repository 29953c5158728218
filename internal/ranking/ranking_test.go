package ranking

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"reelharvest/internal/normalize"
)

func rec(text string, replies, likes int64) normalize.Record {
	return normalize.Record{Text: text, ReplyCount: replies, LikeCount: likes}
}

func texts(records []normalize.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

func TestRankDefaultWeightsScenario(t *testing.T) {
	input := []normalize.Record{rec("r0", 1, 10), rec("r1", 5, 0), rec("r2", 0, 20)}

	result := Rank(input, 3, DefaultWeights())

	wantScores := []float64{11, 10, 20}
	for i, r := range result.All {
		if r.EngagementScore != wantScores[i] {
			t.Fatalf("All[%d] score = %v, want %v", i, r.EngagementScore, wantScores[i])
		}
	}
	if got := texts(result.Ranked); !reflect.DeepEqual(got, []string{"r2", "r0", "r1"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if got := texts(result.All); !reflect.DeepEqual(got, []string{"r0", "r1", "r2"}) {
		t.Fatalf("All must keep input order, got %v", got)
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	input := []normalize.Record{rec("a", 0, 4), rec("b", 1, 2), rec("c", 2, 0), rec("d", 0, 9)}
	result := Rank(input, 0, DefaultWeights())
	if got := texts(result.Ranked); !reflect.DeepEqual(got, []string{"d", "a", "b", "c"}) {
		t.Fatalf("unexpected tie order %v", got)
	}
}

func TestRankTopKAtLeastLengthKeepsEverything(t *testing.T) {
	input := []normalize.Record{rec("a", 0, 1), rec("b", 0, 2)}
	for _, k := range []int{2, 5, 0, -1} {
		result := Rank(input, k, DefaultWeights())
		if len(result.Ranked) != len(input) {
			t.Fatalf("topK=%d: expected %d ranked, got %d", k, len(input), len(result.Ranked))
		}
	}
}

func TestRankTruncatesToPrefixOfSortedAll(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input := make([]normalize.Record, 40)
	for i := range input {
		input[i] = rec(string(rune('A'+i)), rng.Int63n(5), rng.Int63n(10))
	}

	for k := 1; k <= len(input); k++ {
		result := Rank(input, k, DefaultWeights())
		if len(result.Ranked) != k {
			t.Fatalf("topK=%d: got %d ranked", k, len(result.Ranked))
		}
		sorted := append([]normalize.Record(nil), result.All...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EngagementScore > sorted[j].EngagementScore })
		if !reflect.DeepEqual(result.Ranked, sorted[:k]) {
			t.Fatalf("topK=%d: ranked is not a prefix of sorted All", k)
		}
	}
}

func TestRankIsDeterministicAndLeavesInputAlone(t *testing.T) {
	input := []normalize.Record{rec("x", 3, 1), rec("y", 1, 5), rec("z", 3, 1)}
	snapshot := append([]normalize.Record(nil), input...)

	first := Rank(input, 2, DefaultWeights())
	second := Rank(input, 2, DefaultWeights())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ranking not deterministic: %v vs %v", texts(first.Ranked), texts(second.Ranked))
	}
	if !reflect.DeepEqual(input, snapshot) {
		t.Fatal("Rank mutated its input")
	}
}

func TestRankAppendToRankedDoesNotClobberAll(t *testing.T) {
	input := []normalize.Record{rec("a", 0, 1), rec("b", 0, 3), rec("c", 0, 2)}
	result := Rank(input, 1, DefaultWeights())
	_ = append(result.Ranked, rec("extra", 9, 9))
	if len(result.All) != 3 || result.All[1].Text != "b" {
		t.Fatalf("All changed after append to Ranked: %v", texts(result.All))
	}
}

func TestScoreCustomWeights(t *testing.T) {
	if got := Score(rec("", 2, 3), Weights{Reply: 0.5, Like: 2}); got != 7 {
		t.Fatalf("unexpected score %v", got)
	}
}

func TestRankEmpty(t *testing.T) {
	result := Rank(nil, 6, DefaultWeights())
	if len(result.Ranked) != 0 || len(result.All) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
