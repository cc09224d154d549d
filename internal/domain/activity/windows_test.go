package activity

import (
	"strconv"
	"testing"
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

var anchor = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func leetCodeAt(slug string, solvedAt time.Time) platform.LeetCodeSubmission {
	return platform.LeetCodeSubmission{
		TitleSlug:     slug,
		Timestamp:     strconv.FormatInt(solvedAt.Unix(), 10),
		StatusDisplay: "Accepted",
	}
}

func codeforcesAt(contestID int64, index string, solvedAt time.Time) platform.CodeforcesSubmission {
	return platform.CodeforcesSubmission{
		CreationTimeSeconds: solvedAt.Unix(),
		Verdict:             platform.VerdictOK,
		Problem:             &platform.CodeforcesProblem{ContestID: contestID, Index: index},
	}
}

func TestRecent_LeetCodeWindows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		submissions []platform.LeetCodeSubmission
		want        WindowCounts
	}{
		{
			name:        "solve today lands in all three windows",
			submissions: []platform.LeetCodeSubmission{leetCodeAt("two-sum", anchor.Add(-2*time.Hour))},
			want:        WindowCounts{Today: 1, Last7: 1, Last30: 1},
		},
		{
			name: "same slug twice in the last week counts once",
			submissions: []platform.LeetCodeSubmission{
				leetCodeAt("two-sum", anchor.AddDate(0, 0, -2)),
				leetCodeAt("two-sum", anchor.AddDate(0, 0, -5)),
			},
			want: WindowCounts{Today: 0, Last7: 1, Last30: 1},
		},
		{
			name:        "ten days back lands only in the month window",
			submissions: []platform.LeetCodeSubmission{leetCodeAt("jump-game", anchor.AddDate(0, 0, -10))},
			want:        WindowCounts{Today: 0, Last7: 0, Last30: 1},
		},
		{
			name:        "forty days back is out of every window",
			submissions: []platform.LeetCodeSubmission{leetCodeAt("word-break", anchor.AddDate(0, 0, -40))},
			want:        WindowCounts{},
		},
		{
			name:        "future dated entries are skipped",
			submissions: []platform.LeetCodeSubmission{leetCodeAt("lru-cache", anchor.AddDate(0, 0, 2))},
			want:        WindowCounts{},
		},
		{
			name: "entries without slug or timestamp are skipped",
			submissions: []platform.LeetCodeSubmission{
				{TitleSlug: "", Timestamp: strconv.FormatInt(anchor.Unix(), 10)},
				{TitleSlug: "three-sum", Timestamp: "not-a-number"},
				{TitleSlug: "three-sum", Timestamp: ""},
			},
			want: WindowCounts{},
		},
		{
			name: "window boundary at seven days",
			submissions: []platform.LeetCodeSubmission{
				leetCodeAt("edge-six", anchor.AddDate(0, 0, -6)),
				leetCodeAt("edge-seven", anchor.AddDate(0, 0, -7)),
			},
			want: WindowCounts{Today: 0, Last7: 1, Last30: 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			payload := platform.NewLeetCodePayload(&platform.LeetCodePayload{RecentAcSubmission: tc.submissions})
			if got := Recent(payload, anchor); got != tc.want {
				t.Fatalf("Recent = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRecent_CodeforcesWindows(t *testing.T) {
	t.Parallel()

	payload := platform.NewCodeforcesPayload(&platform.CodeforcesPayload{
		User: &platform.CodeforcesUser{Handle: "ravi"},
		Submissions: []platform.CodeforcesSubmission{
			codeforcesAt(1700, "A", anchor.Add(-time.Hour)),
			codeforcesAt(1700, "A", anchor.AddDate(0, 0, -3)),
			codeforcesAt(1701, "B", anchor.AddDate(0, 0, -12)),
			{CreationTimeSeconds: anchor.Unix(), Verdict: "WRONG_ANSWER", Problem: &platform.CodeforcesProblem{ContestID: 1702, Index: "C"}},
			{CreationTimeSeconds: anchor.Unix(), Verdict: platform.VerdictOK, Problem: nil},
		},
	})

	want := WindowCounts{Today: 1, Last7: 1, Last30: 2}
	if got := Recent(payload, anchor); got != want {
		t.Fatalf("Recent = %+v, want %+v", got, want)
	}
}

func TestRecent_Deterministic(t *testing.T) {
	t.Parallel()

	payload := platform.NewLeetCodePayload(&platform.LeetCodePayload{
		RecentAcSubmission: []platform.LeetCodeSubmission{
			leetCodeAt("two-sum", anchor.Add(-time.Hour)),
			leetCodeAt("jump-game", anchor.AddDate(0, 0, -4)),
		},
	})

	first := Recent(payload, anchor)
	second := Recent(payload, anchor)
	if first != second {
		t.Fatalf("Recent not deterministic: %+v vs %+v", first, second)
	}
}

func TestAggregateAndActiveCounts(t *testing.T) {
	t.Parallel()

	items := []WindowCounts{
		{Today: 1, Last7: 3, Last30: 8},
		{Today: 0, Last7: 0, Last30: 2},
		{Today: 0, Last7: 0, Last30: 0},
	}

	if got, want := Aggregate(items), (WindowCounts{Today: 1, Last7: 3, Last30: 10}); got != want {
		t.Fatalf("Aggregate = %+v, want %+v", got, want)
	}
	if got, want := ActiveCounts(items), (WindowCounts{Today: 1, Last7: 1, Last30: 2}); got != want {
		t.Fatalf("ActiveCounts = %+v, want %+v", got, want)
	}
}
