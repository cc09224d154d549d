package postgres

import (
	"strings"
	"testing"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/stats"
)

func TestEncodeStats(t *testing.T) {
	if encoded, err := encodeStats(nil); err != nil || encoded != nil {
		t.Fatalf("encodeStats(nil) = %q, %v, want nil, nil", encoded, err)
	}

	branchless := &stats.Summary{Platform: platform.LeetCode}
	if encoded, err := encodeStats(branchless); err != nil || encoded != nil {
		t.Fatalf("encodeStats(branchless) = %q, %v, want nil, nil", encoded, err)
	}

	populated := &stats.Summary{
		Platform: platform.Codeforces,
		Codeforces: &stats.CodeforcesSummary{
			Rating:         1500,
			MaxRating:      1550,
			Rank:           "specialist",
			ProblemsSolved: 40,
		},
	}
	encoded, err := encodeStats(populated)
	if err != nil {
		t.Fatalf("encodeStats: %v", err)
	}
	if !strings.Contains(string(encoded), `"rank":"specialist"`) {
		t.Fatalf("encoded stats missing rank: %s", encoded)
	}
}

func TestCodingProfileTableModel_ToDomain(t *testing.T) {
	model := codingProfileTableModel{
		StudentID: "stu-avani",
		Platform:  "leetcode",
		Username:  "avani_k",
		Score:     135.5,
		Stats:     []byte(`{"platform":"leetcode","leetcode":{"easy":50,"medium":20,"hard":5,"total_solved":75}}`),
	}

	profile, err := model.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if profile.Platform != platform.LeetCode {
		t.Fatalf("platform = %q", profile.Platform)
	}
	if profile.Stats == nil || profile.Stats.LeetCode == nil {
		t.Fatal("expected decoded leetcode stats branch")
	}
	if profile.Stats.LeetCode.TotalSolved != 75 {
		t.Fatalf("total_solved = %d", profile.Stats.LeetCode.TotalSolved)
	}
	if profile.FetchedAt != nil {
		t.Fatal("fetched_at should stay nil when the column is NULL")
	}
}
